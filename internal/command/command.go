// Package command runs host commands such as nmcli and systemctl.
package command

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec. When Sudo is set, commands are
// prefixed with sudo -n so a missing sudoers entry fails instead of prompting.
type ExecRunner struct {
	Sudo bool
}

// Run executes name with args and logs its combined output.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	if r.Sudo {
		args = append([]string{"-n", name}, args...)
		name = "sudo"
	}
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if s := strings.TrimSpace(string(out)); s != "" {
		log.Printf("command: %s: %s", cmdline, s)
	}
	if err != nil {
		return fmt.Errorf("command: %s: %w", cmdline, err)
	}
	return nil
}

// Split breaks a command line into a name and arguments using shell
// quoting rules. No shell is involved when the command later runs.
func Split(cmdline string) (string, []string, error) {
	fields, err := shellwords.Parse(cmdline)
	if err != nil {
		return "", nil, fmt.Errorf("command: parse %q: %w", cmdline, err)
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("command: empty command")
	}
	return fields[0], fields[1:], nil
}
