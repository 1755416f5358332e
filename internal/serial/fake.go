package serial

import "io"

// FakeSource is a test double that returns scripted lines.
type FakeSource struct {
	// Lines are returned in order. Once exhausted, ReadLine returns io.EOF
	// unless Repeat is set, in which case the last line repeats forever.
	Lines  []string
	Repeat bool

	// Errors maps a call index to an error returned instead of a line.
	Errors map[int]error

	// Calls counts ReadLine invocations.
	Calls int
}

// NewFakeSource creates a FakeSource with the given lines.
func NewFakeSource(lines ...string) *FakeSource {
	return &FakeSource{Lines: lines}
}

// ReadLine returns the next scripted line.
func (f *FakeSource) ReadLine() (string, error) {
	i := f.Calls
	f.Calls++

	if err, ok := f.Errors[i]; ok {
		return "", err
	}
	if i < len(f.Lines) {
		return f.Lines[i], nil
	}
	if f.Repeat && len(f.Lines) > 0 {
		return f.Lines[len(f.Lines)-1], nil
	}
	return "", io.EOF
}
