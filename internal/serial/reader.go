package serial

import (
	"errors"
	"io"
	"log"
	"strings"
)

// LineSource yields newline-delimited lines from a serial device.
type LineSource interface {
	// ReadLine returns the next line without its terminator.
	// A read timeout yields an empty line and a nil error.
	// io.EOF means no more lines will ever arrive.
	ReadLine() (string, error)
}

// Default line budgets used by the programs.
const (
	DefaultMaxLines       = 15 // combined sampler
	DefaultSheetsMaxLines = 10 // arduino-sheets
)

// Arduino sensor names.
const (
	SensorUV          = "UV"
	SensorAmbientTemp = "AmbientTemp"
)

// scanLines reads at most maxLines lines from src and hands each to visit.
// It stops early when visit returns true or src reports io.EOF.
// Read errors other than io.EOF are logged and count against the budget.
// Returns the number of lines consumed.
func scanLines(src LineSource, maxLines int, visit func(line string) (stop bool)) int {
	n := 0
	for n < maxLines {
		line, err := src.ReadLine()
		n++
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n
			}
			log.Printf("serial: read error: %v", err)
			continue
		}
		if visit(line) {
			return n
		}
	}
	return n
}

// Collect reads frames until every name in required has been seen at least
// once or maxLines lines have been consumed. The most recent frame per name
// wins. It never fails: malformed lines are logged and skipped, and an
// exhausted budget returns whatever subset was collected.
//
// When required is empty, every frame is kept until the budget runs out.
func Collect(src LineSource, maxLines int, required []string) map[string]Frame {
	want := make(map[string]bool, len(required))
	for _, name := range required {
		want[name] = true
	}
	got := make(map[string]Frame)

	scanLines(src, maxLines, func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" {
			return false
		}
		f, err := ParseFrame(line)
		if errors.Is(err, ErrNotFrame) {
			return false
		}
		if err != nil {
			log.Printf("serial: parse error: %q: %v", line, err)
			return false
		}
		if len(want) > 0 && !want[f.SensorName] {
			return false
		}
		got[f.SensorName] = f
		return len(want) > 0 && len(got) == len(want)
	})

	return got
}

// Missing returns the names in required that frames does not contain.
func Missing(frames map[string]Frame, required []string) []string {
	var out []string
	for _, name := range required {
		if _, ok := frames[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
