package command

import (
	"context"
	"strings"
)

// FakeRunner records commands instead of running them.
type FakeRunner struct {
	// Commands holds each command line run, space-joined.
	Commands []string

	// RunError, if set, is returned by Run after recording.
	RunError error
}

// Run records the command line.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.Commands = append(f.Commands, strings.Join(append([]string{name}, args...), " "))
	return f.RunError
}
