package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/ini.v1"
	"scrollcap.dev/scrollcap/internal/align"
	"scrollcap.dev/scrollcap/internal/capture"
)

// Settings holds everything loadable from Settings.ini. Values not
// present in the file keep the defaults of the original tool.
type Settings struct {
	// Capture
	Overlap            int
	MinOffset          int
	SampleStride       int
	DuplicateThreshold float64
	MaxDissimilarity   float64
	ScrollKey          string
	StartDelay         time.Duration
	SettleDelay        time.Duration
	MaxScrolls         int
	StallRetryLimit    int

	// Output
	OutputName   string
	OutputFormat string

	// History
	HistoryEnabled bool
	HistoryPath    string

	// Logging
	LogDir string
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	return &Settings{
		Overlap:            125,
		MinOffset:          1,
		SampleStride:       4,
		DuplicateThreshold: 0.02,
		MaxDissimilarity:   0.25,
		ScrollKey:          "space",
		StartDelay:         3 * time.Second,
		SettleDelay:        200 * time.Millisecond,
		StallRetryLimit:    3,
		OutputName:         "00",
		OutputFormat:       "png",
		HistoryEnabled:     true,
		HistoryPath:        "scrollcap.db",
		LogDir:             "logs",
	}
}

// Load reads Settings.ini from path. A missing file is not an error;
// defaults are returned.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file: %w", err)
	}

	section := cfg.Section("Capture")
	s.Overlap = section.Key("overlap").MustInt(s.Overlap)
	s.MinOffset = section.Key("minOffset").MustInt(s.MinOffset)
	s.SampleStride = section.Key("sampleStride").MustInt(s.SampleStride)
	s.DuplicateThreshold = section.Key("duplicateThreshold").MustFloat64(s.DuplicateThreshold)
	s.MaxDissimilarity = section.Key("maxDissimilarity").MustFloat64(s.MaxDissimilarity)
	s.ScrollKey = section.Key("scrollKey").MustString(s.ScrollKey)
	s.StartDelay = time.Duration(section.Key("startDelaySec").MustInt(int(s.StartDelay.Seconds()))) * time.Second
	s.SettleDelay = time.Duration(section.Key("settleDelayMs").MustInt(int(s.SettleDelay.Milliseconds()))) * time.Millisecond
	s.MaxScrolls = section.Key("maxScrolls").MustInt(s.MaxScrolls)
	s.StallRetryLimit = section.Key("stallRetryLimit").MustInt(s.StallRetryLimit)

	output := cfg.Section("Output")
	s.OutputName = output.Key("name").MustString(s.OutputName)
	s.OutputFormat = output.Key("format").MustString(s.OutputFormat)

	history := cfg.Section("History")
	s.HistoryEnabled = history.Key("enabled").MustBool(s.HistoryEnabled)
	s.HistoryPath = history.Key("path").MustString(s.HistoryPath)

	logging := cfg.Section("Logging")
	s.LogDir = logging.Key("dir").MustString(s.LogDir)

	return s, nil
}

// CaptureConfig maps the settings onto a session configuration. The
// crop region is supplied separately, per invocation.
func (s *Settings) CaptureConfig() capture.Config {
	return capture.Config{
		Align: align.Config{
			OverlapPixels:      s.Overlap,
			MinOffset:          s.MinOffset,
			SampleStride:       s.SampleStride,
			DuplicateThreshold: s.DuplicateThreshold,
			MaxDissimilarity:   s.MaxDissimilarity,
		},
		ScrollKey:       s.ScrollKey,
		StartDelay:      s.StartDelay,
		SettleDelay:     s.SettleDelay,
		MaxScrolls:      s.MaxScrolls,
		StallRetryLimit: s.StallRetryLimit,
	}
}
