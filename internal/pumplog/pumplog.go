// Package pumplog scrapes Grow HAT watering events out of the system log.
package pumplog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/sweeney/grow-monitor/internal/grow"
)

// DefaultPaths are the live and most recently rotated syslog files.
var DefaultPaths = []string{"/var/log/syslog", "/var/log/syslog.1"}

// Matches: 2025-11-04 12:00:57,269 INFO: Watering Channel: 1 - rate 0.60 for 1.00sec
var linePattern = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),\d+ .*Watering Channel: (\d+) - rate ([\d.]+) for ([\d.]+)sec`)

// Inserter stores pump events, ignoring ones already present.
type Inserter interface {
	InsertPumpEvents(events []grow.PumpEvent) ([]grow.PumpEvent, error)
}

// ParseLine extracts a watering event from a log line.
func ParseLine(line string) (grow.PumpEvent, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return grow.PumpEvent{}, false
	}

	channel, err := strconv.Atoi(m[2])
	if err != nil {
		return grow.PumpEvent{}, false
	}
	rate, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return grow.PumpEvent{}, false
	}
	duration, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return grow.PumpEvent{}, false
	}

	return grow.PumpEvent{
		Timestamp: m[1],
		Channel:   channel,
		Rate:      rate,
		Duration:  duration,
	}, true
}

// maxLineLen caps how much of one log line is kept for matching. The rest
// of an oversized line is discarded and reading continues with the next.
const maxLineLen = 1024 * 1024

// Read returns every watering event in r, in file order.
func Read(r io.Reader) ([]grow.PumpEvent, error) {
	var events []grow.PumpEvent
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := readLine(br)
		if e, ok := ParseLine(line); ok {
			events = append(events, e)
		}
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
	}
}

// readLine returns the next line without its terminator, truncated to
// maxLineLen bytes.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if room := maxLineLen - len(buf); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			buf = append(buf, chunk...)
		}
		if err != nil || !isPrefix {
			return string(buf), err
		}
	}
}

// Scan pools the events from all paths, oldest first. Missing files are
// skipped. Any other open or read error is returned.
func Scan(paths ...string) ([]grow.PumpEvent, error) {
	var events []grow.PumpEvent
	for _, path := range paths {
		found, err := scanFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("pumplog: %s not found, skipping", path)
			continue
		}
		if err != nil {
			return nil, err
		}
		events = append(events, found...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return events, nil
}

func scanFile(path string) ([]grow.PumpEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return events, nil
}

// Sync scans paths and stores events not seen before.
// Returns the newly inserted events, oldest first.
func Sync(store Inserter, paths ...string) ([]grow.PumpEvent, error) {
	events, err := Scan(paths...)
	if err != nil {
		return nil, fmt.Errorf("scan pump log: %w", err)
	}

	inserted, err := store.InsertPumpEvents(events)
	if err != nil {
		return nil, fmt.Errorf("store pump events: %w", err)
	}

	if len(inserted) > 0 {
		log.Printf("pumplog: logged %d new pump event(s)", len(inserted))
	} else {
		log.Printf("pumplog: no new pump events found")
	}
	return inserted, nil
}
