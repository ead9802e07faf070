package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"scrollcap.dev/scrollcap/internal/capture"
	"scrollcap.dev/scrollcap/internal/config"
	"scrollcap.dev/scrollcap/internal/events"
	"scrollcap.dev/scrollcap/internal/frame"
	"scrollcap.dev/scrollcap/internal/history"
	"scrollcap.dev/scrollcap/internal/imgio"
	"scrollcap.dev/scrollcap/internal/logging"
	"scrollcap.dev/scrollcap/internal/presets"
	"scrollcap.dev/scrollcap/internal/scroll"
	"scrollcap.dev/scrollcap/internal/source"
)

func main() {
	settingsPath := os.Getenv("SCROLLCAP_SETTINGS")
	if settingsPath == "" {
		settingsPath = "Settings.ini"
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	output := flag.String("output", settings.OutputName, "Output file name (without extension)")
	format := flag.String("format", settings.OutputFormat, "Output format: png, jpg, jpeg, gif, bmp, tiff")
	overlap := flag.Int("overlap", settings.Overlap, "Overlap window in pixels for alignment")
	delay := flag.Int("delay", int(settings.StartDelay.Seconds()), "Delay in seconds before starting capture")
	key := flag.String("key", settings.ScrollKey, "Key to use for scrolling: space, down, pagedown")
	crop := flag.String("crop", "", "Crop region as 'x,y,width,height'")
	cropPreset := flag.String("crop-preset", "", "Use a named crop preset")
	listPresets := flag.Bool("list-presets", false, "List available crop presets")
	savePreset := flag.String("save-preset", "", "Save a preset: 'name:x,y,width,height'")
	maxScrolls := flag.Int("max-scrolls", settings.MaxScrolls, "Maximum number of scrolls (0 = unlimited)")
	scrollDelay := flag.Int("scroll-delay", int(settings.SettleDelay.Milliseconds()),
		"Delay in milliseconds after scrolling before capturing")
	maxDuration := flag.Int("max-duration", 0, "Overall capture budget in seconds (0 = unlimited)")
	display := flag.Int("display", 0, "Display index to capture")
	video := flag.Bool("video", false, "Record a video with ffmpeg and stitch its frames")
	videoDuration := flag.Int("duration", 15, "Video recording duration in seconds (video mode)")
	fps := flag.Int("fps", 2, "Frame sampling rate (video mode)")
	framesDir := flag.String("frames-dir", "", "Stitch pre-extracted frames from a directory")
	showHistory := flag.Int("history", 0, "Show the N most recent capture sessions and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	store := openPresetStore()

	if *listPresets {
		printPresets(store)
		return
	}
	if *savePreset != "" {
		name, value, err := presets.ParseSaveArg(*savePreset)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := store.Save(name, value); err != nil {
			log.Fatalf("Failed to save preset: %v", err)
		}
		color.Green("Preset '%s' saved: %s", name, value)
		return
	}

	if *showHistory > 0 {
		printHistory(settings.HistoryPath, *showHistory)
		return
	}

	if err := imgio.ValidateFormat(*format); err != nil {
		log.Fatalf("%v", err)
	}
	outputPath := imgio.BuildOutputPath(*output, *format)

	region, err := resolveRegion(store, *cropPreset, *crop)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := settings.CaptureConfig()
	cfg.Region = region
	cfg.Align.OverlapPixels = *overlap
	cfg.ScrollKey = *key
	cfg.StartDelay = time.Duration(*delay) * time.Second
	cfg.SettleDelay = time.Duration(*scrollDelay) * time.Millisecond
	cfg.MaxScrolls = *maxScrolls
	cfg.MaxDuration = time.Duration(*maxDuration) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus(64)
	defer bus.Stop()
	eventLogger, err := logging.NewEventLogger(bus, settings.LogDir)
	if err != nil {
		log.Fatalf("Failed to create event logger: %v", err)
	}
	defer eventLogger.Close()

	var db *history.DB
	if settings.HistoryEnabled {
		db, err = history.Open(settings.HistoryPath)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			log.Fatalf("Failed to migrate history database: %v", err)
		}
	}

	src, driver, cleanup, err := buildPipeline(ctx, &cfg, *framesDir, *video,
		time.Duration(*videoDuration)*time.Second, *fps, *display)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cleanup()

	session := capture.NewSession(cfg, src, driver).WithEventBus(bus)
	if *verbose {
		session.WithLogger(logging.NewLogger("Session").SetMinLevel(logging.LogLevelDebug))
	}

	if cfg.StartDelay > 0 {
		color.Cyan("Starting capture in %s - focus the window you want to capture", cfg.StartDelay)
	}
	color.Cyan("Press Ctrl+C to stop early and keep what has been captured")

	started := time.Now()
	result, runErr := session.Run(ctx)
	if result == nil {
		log.Fatalf("Capture failed with no output: %v", runErr)
	}

	if err := imgio.Save(outputPath, result.Image); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	if db != nil {
		if err := db.RecordSession(result, started, outputPath); err != nil {
			color.Yellow("Warning: could not record session history: %v", err)
		}
	}

	reportResult(result, outputPath)
	if runErr != nil {
		os.Exit(1)
	}
}

// buildPipeline selects the frame source and scroll driver for the
// requested mode. Video and directory modes scroll on their own, so
// they pair with the no-op driver, skip the capture delays and decode
// ahead through Prefetch. Live capture stays strictly sequential: each
// frame must be grabbed after the scroll step and settle delay that
// precede it.
func buildPipeline(ctx context.Context, cfg *capture.Config, framesDir string, video bool,
	videoDuration time.Duration, fps, display int) (capture.FrameSource, capture.ScrollDriver, func(), error) {

	switch {
	case framesDir != "":
		src, err := source.NewDirSource(framesDir)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg.StartDelay = 0
		cfg.SettleDelay = 0
		prefetch := source.NewPrefetch(src)
		return prefetch, capture.NopScrollDriver{}, func() { prefetch.Close() }, nil

	case video:
		recorder, err := source.NewVideoRecorder(cfg.Region)
		if err != nil {
			return nil, nil, nil, err
		}
		color.Cyan("Recording screen for %s...", videoDuration)
		if err := recorder.Record(ctx, videoDuration); err != nil {
			recorder.Cleanup()
			return nil, nil, nil, err
		}
		src, err := recorder.ExtractFrames(ctx, fps)
		if err != nil {
			recorder.Cleanup()
			return nil, nil, nil, err
		}
		// ffmpeg already applied the crop at record time
		cfg.Region = nil
		cfg.StartDelay = 0
		cfg.SettleDelay = 0
		prefetch := source.NewPrefetch(src)
		return prefetch, capture.NopScrollDriver{}, func() {
			prefetch.Close()
			recorder.Cleanup()
		}, nil

	default:
		screen, err := source.NewScreenSource(display)
		if err != nil {
			return nil, nil, nil, err
		}
		return screen, scroll.NewKeyScroller(), func() {}, nil
	}
}

func openPresetStore() *presets.Store {
	path, err := presets.DefaultPath()
	if err != nil {
		path = ".scrollcap-presets.yaml"
	}
	return presets.NewStore(path)
}

func resolveRegion(store *presets.Store, presetName, cropStr string) (*frame.CropRegion, error) {
	switch {
	case presetName != "":
		region, err := store.Resolve(presetName)
		if err != nil {
			return nil, fmt.Errorf("crop preset: %w (use --list-presets to see available presets)", err)
		}
		color.Cyan("Using preset '%s': %s", presetName, region)
		return &region, nil
	case cropStr != "":
		region, err := frame.ParseCropRegion(cropStr)
		if err != nil {
			return nil, fmt.Errorf("crop: %w", err)
		}
		return &region, nil
	default:
		return nil, nil
	}
}

func printPresets(store *presets.Store) {
	builtin := presets.Builtin()
	user, err := store.LoadUser()
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	color.Cyan("Built-in presets:")
	for _, name := range sortedKeys(builtin) {
		if _, overridden := user[name]; !overridden {
			fmt.Printf("  %s = %s\n", name, builtin[name])
		}
	}

	if len(user) > 0 {
		color.Cyan("Custom presets:")
		for _, name := range sortedKeys(user) {
			fmt.Printf("  %s = %s\n", name, user[name])
		}
	} else {
		fmt.Println("Custom presets: (none)")
	}
	fmt.Printf("\nPreset file: %s\n", store.Path())
	fmt.Println("Save presets with: --save-preset name:x,y,w,h")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printHistory(dbPath string, limit int) {
	db, err := history.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to migrate history database: %v", err)
	}

	records, err := db.ListRecent(limit)
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No capture sessions recorded yet")
		return
	}

	for _, r := range records {
		line := fmt.Sprintf("%s  %-14s %dx%d  %d/%d frames  %s",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Outcome,
			r.Width, r.Height, r.FramesAccepted, r.FramesCaptured,
			r.Duration.Round(time.Millisecond))
		if r.OutputPath != nil {
			line += "  " + *r.OutputPath
		}
		switch r.Outcome {
		case string(capture.OutcomeAborted):
			color.Red("%s", line)
		case string(capture.OutcomeStalled):
			color.Yellow("%s", line)
		default:
			fmt.Println(line)
		}
	}
}

func reportResult(result *capture.Result, outputPath string) {
	switch result.Outcome {
	case capture.OutcomeAborted:
		color.Red("Capture aborted: %v", result.Err)
		color.Yellow("Partial image saved to %s (%dx%d)",
			outputPath, result.Image.Bounds().Dx(), result.Image.Bounds().Dy())
	case capture.OutcomeStalled:
		color.Yellow("Scrolling stalled - saved %s (%dx%d)",
			outputPath, result.Image.Bounds().Dx(), result.Image.Bounds().Dy())
	default:
		color.Green("Done! Saved %s (%dx%d, %d frames, %s)",
			outputPath, result.Image.Bounds().Dx(), result.Image.Bounds().Dy(),
			result.FramesAccepted, result.Duration.Round(time.Millisecond))
	}
}
