// Package sheets appends rows to a Google spreadsheet range.
package sheets

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/sweeney/grow-monitor/internal/serial"
)

// Value input options understood by the Sheets API.
const (
	InputRaw           = "RAW"
	InputUserEntered   = "USER_ENTERED"
	insertRowsOption   = "INSERT_ROWS"
	defaultInputOption = InputRaw
)

// RowAppender appends rows to a fixed range.
type RowAppender interface {
	// Append adds rows below the range's existing data. An empty rows slice
	// is a no-op.
	Append(ctx context.Context, rows [][]any) error
}

// Appender appends rows through the Sheets v4 API.
type Appender struct {
	svc           *gsheets.Service
	spreadsheetID string
	rng           string
	inputOption   string
}

// Config identifies the target range.
type Config struct {
	SpreadsheetID string
	Range         string // e.g. "Sheet1!A:D"
	InputOption   string // InputRaw (default) or InputUserEntered
}

// New creates an Appender authorised by tokens. Extra client options are
// passed to the Sheets client (tests use them to point at a local server).
func New(ctx context.Context, tokens oauth2.TokenSource, cfg Config, opts ...option.ClientOption) (*Appender, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}
	if cfg.Range == "" {
		return nil, fmt.Errorf("sheets: range is required")
	}
	input := cfg.InputOption
	if input == "" {
		input = defaultInputOption
	}

	opts = append([]option.ClientOption{option.WithTokenSource(tokens)}, opts...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create client: %w", err)
	}

	return &Appender{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		rng:           cfg.Range,
		inputOption:   input,
	}, nil
}

// Append adds rows to the configured range, inserting new rows.
func (a *Appender) Append(ctx context.Context, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	vr := &gsheets.ValueRange{Values: rows}
	resp, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, a.rng, vr).
		ValueInputOption(a.inputOption).
		InsertDataOption(insertRowsOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", a.rng, err)
	}

	if resp.Updates != nil {
		log.Printf("sheets: appended %d row(s) at %s", resp.Updates.UpdatedRows, resp.Updates.UpdatedRange)
	}
	return nil
}

// ReadingRow builds a row of timestamp followed by values.
func ReadingRow(ts string, values ...float64) []any {
	row := make([]any, 0, len(values)+1)
	row = append(row, ts)
	for _, v := range values {
		row = append(row, v)
	}
	return row
}

// FrameRows builds one [timestamp, sensor, value, unit] row per frame,
// in the given name order. Names without a frame are skipped.
func FrameRows(ts string, frames map[string]serial.Frame, order []string) [][]any {
	var rows [][]any
	for _, name := range order {
		f, ok := frames[name]
		if !ok {
			continue
		}
		rows = append(rows, []any{ts, f.SensorName, f.Value, f.Unit})
	}
	return rows
}
