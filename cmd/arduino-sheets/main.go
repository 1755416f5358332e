// Command arduino-sheets reads one UV and ambient temperature sample from the
// Arduino and appends it to a Google spreadsheet, one row per sensor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/grow-monitor/internal/oauth"
	"github.com/sweeney/grow-monitor/internal/serial"
	"github.com/sweeney/grow-monitor/internal/sheets"
)

// isoLayout matches the microsecond ISO-8601 timestamps already in the sheet.
const isoLayout = "2006-01-02T15:04:05.000000"

var required = []string{serial.SensorUV, serial.SensorAmbientTemp}

type config struct {
	device        string
	baud          int
	readTimeout   time.Duration
	maxLines      int
	credentials   string
	token         string
	spreadsheetID string
	rng           string
}

func main() {
	device := flag.String("serial", serial.DefaultDevice, "Arduino serial device")
	baud := flag.Int("baud", serial.DefaultBaud, "Serial baud rate")
	readTimeout := flag.Duration("read-timeout", serial.DefaultTimeout, "Serial per-line read timeout")
	maxLines := flag.Int("max-lines", serial.DefaultSheetsMaxLines, "Maximum serial lines to read")
	credentials := flag.String("credentials", oauth.DefaultCredentialsPath, "Google OAuth client secrets file")
	token := flag.String("token", oauth.DefaultTokenPath, "OAuth token cache file")
	spreadsheetID := flag.String("spreadsheet", "", "Spreadsheet ID (required)")
	rng := flag.String("range", "Sheet5!A:D", "Target range: timestamp, sensor, value, unit")

	flag.Parse()

	cfg := config{
		device:        *device,
		baud:          *baud,
		readTimeout:   *readTimeout,
		maxLines:      *maxLines,
		credentials:   *credentials,
		token:         *token,
		spreadsheetID: *spreadsheetID,
		rng:           *rng,
	}
	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	if cfg.spreadsheetID == "" {
		return fmt.Errorf("-spreadsheet is required")
	}

	port, err := serial.Open(cfg.device, cfg.baud, cfg.readTimeout)
	if err != nil {
		return fmt.Errorf("open serial: %w", err)
	}
	defer port.Close()

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
		InputOption:   sheets.InputUserEntered,
	})
	if err != nil {
		return err
	}

	return upload(ctx, port, cfg.maxLines, appender, time.Now())
}

// upload collects frames and appends one row per required sensor seen.
// Nothing is appended when no sensor reported.
func upload(ctx context.Context, src serial.LineSource, maxLines int, appender sheets.RowAppender, now time.Time) error {
	frames := serial.Collect(src, maxLines, required)
	rows := sheets.FrameRows(now.Format(isoLayout), frames, required)
	if len(rows) == 0 {
		log.Printf("no valid sensor data found")
		return nil
	}
	if missing := serial.Missing(frames, required); len(missing) > 0 {
		log.Printf("no value for %v", missing)
	}

	if err := appender.Append(ctx, rows); err != nil {
		return err
	}
	log.Printf("logged %d row(s)", len(rows))
	return nil
}
