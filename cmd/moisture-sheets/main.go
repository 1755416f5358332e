// Command moisture-sheets samples the Grow HAT moisture channels and appends
// [timestamp, m1, m2, m3] rows to a Google spreadsheet, once or on an interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/grow-monitor/internal/grow"
	"github.com/sweeney/grow-monitor/internal/moisture"
	"github.com/sweeney/grow-monitor/internal/oauth"
	"github.com/sweeney/grow-monitor/internal/sheets"
)

type config struct {
	chip          string
	pins          []int
	calibrations  []moisture.Calibration
	credentials   string
	token         string
	spreadsheetID string
	rng           string
	once          bool
	interval      time.Duration
}

func main() {
	chip := flag.String("chip", moisture.DefaultChip, "GPIO chip for the moisture channels")
	pins := flag.String("pins", "23,8,25", "BCM pins of moisture channels 1..3")
	dry := flag.String("dry", "27,27,27", "Dry calibration point per channel")
	wet := flag.String("wet", "3,3,3", "Wet calibration point per channel")
	credentials := flag.String("credentials", oauth.DefaultCredentialsPath, "Google OAuth client secrets file")
	token := flag.String("token", oauth.DefaultTokenPath, "OAuth token cache file")
	spreadsheetID := flag.String("spreadsheet", "", "Spreadsheet ID (required)")
	rng := flag.String("range", "Sheet1!A:D", "Target range: timestamp, moisture 1..3")
	once := flag.Bool("once", false, "Upload one sample and exit")
	interval := flag.Duration("interval", 5*time.Minute, "Time between samples")

	flag.Parse()

	pinList, err := moisture.ParsePins(*pins)
	if err != nil {
		log.Fatalf("fatal: -pins: %v", err)
	}
	cals, err := moisture.ParseCalibrations(*dry, *wet)
	if err != nil {
		log.Fatalf("fatal: calibration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config{
		chip:          *chip,
		pins:          pinList,
		calibrations:  cals,
		credentials:   *credentials,
		token:         *token,
		spreadsheetID: *spreadsheetID,
		rng:           *rng,
		once:          *once,
		interval:      *interval,
	}
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	if cfg.spreadsheetID == "" {
		return fmt.Errorf("-spreadsheet is required")
	}
	if !cfg.once && cfg.interval <= 0 {
		return fmt.Errorf("-interval must be positive")
	}

	provider, err := oauth.NewInstalledApp(cfg.credentials, cfg.token, oauth.ScopeSheets)
	if err != nil {
		return err
	}
	if _, err := provider.Token(ctx); err != nil {
		return err
	}
	appender, err := sheets.New(ctx, oauth.TokenSource(ctx, provider), sheets.Config{
		SpreadsheetID: cfg.spreadsheetID,
		Range:         cfg.rng,
		InputOption:   sheets.InputRaw,
	})
	if err != nil {
		return err
	}

	sensors, err := moisture.OpenPulseSensors(cfg.chip, cfg.pins)
	if err != nil {
		return fmt.Errorf("init moisture sensors: %w", err)
	}
	defer moisture.CloseAll(sensors)
	sampler := moisture.NewSampler(sensors, cfg.calibrations)

	if cfg.once {
		uploadOnce(ctx, sampler, appender, time.Now())
		return nil
	}

	log.Printf("started: interval=%v range=%s", cfg.interval, cfg.rng)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()
	runLoop(ctx, sampler, appender, time.Now, ticker.C)
	return nil
}

// moistureSampler is satisfied by *moisture.Sampler.
type moistureSampler interface {
	Sample() ([]float64, error)
}

// runLoop uploads immediately and then on every tick until ctx is done.
func runLoop(ctx context.Context, s moistureSampler, a sheets.RowAppender, now func() time.Time, tick <-chan time.Time) {
	for {
		uploadOnce(ctx, s, a, now())
		select {
		case <-ctx.Done():
			log.Printf("shutting down")
			return
		case <-tick:
		}
	}
}

// uploadOnce samples and appends one row. Failures are logged so a loop
// keeps going; an incomplete sample is not uploaded.
func uploadOnce(ctx context.Context, s moistureSampler, a sheets.RowAppender, now time.Time) bool {
	pct, err := s.Sample()
	if err != nil {
		log.Printf("moisture read failed, skipping upload: %v", err)
		return false
	}

	row := sheets.ReadingRow(grow.FormatTimestamp(now), pct...)
	if err := a.Append(ctx, [][]any{row}); err != nil {
		log.Printf("upload failed: %v", err)
		return false
	}
	log.Printf("uploaded moisture data: %v", pct)
	return true
}
