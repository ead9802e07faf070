package history

import (
	"database/sql"
	"fmt"
	"time"

	"scrollcap.dev/scrollcap/internal/capture"
)

// SessionRecord is one stored capture session
type SessionRecord struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	Outcome        string
	FramesCaptured int
	FramesAccepted int
	Width          int
	Height         int
	OutputPath     *string
	Error          *string
}

// RecordSession stores the result of a finished capture session
func (db *DB) RecordSession(res *capture.Result, startedAt time.Time, outputPath string) error {
	var errText *string
	if res.Err != nil {
		s := res.Err.Error()
		errText = &s
	}
	var outPath *string
	if outputPath != "" {
		outPath = &outputPath
	}

	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO sessions (
				id, started_at, duration_ms, outcome,
				frames_captured, frames_accepted, width, height,
				output_path, error
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, res.SessionID, startedAt, res.Duration.Milliseconds(), string(res.Outcome),
			res.FramesCaptured, res.FramesAccepted,
			res.Image.Bounds().Dx(), res.Image.Bounds().Dy(),
			outPath, errText)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

// ListRecent returns the most recent sessions, newest first
func (db *DB) ListRecent(limit int) ([]SessionRecord, error) {
	rows, err := db.conn.Query(`
		SELECT
			id, started_at, duration_ms, outcome,
			frames_captured, frames_accepted, width, height,
			output_path, error
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var durationMs int64
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &durationMs, &r.Outcome,
			&r.FramesCaptured, &r.FramesAccepted, &r.Width, &r.Height,
			&r.OutputPath, &r.Error,
		); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}
