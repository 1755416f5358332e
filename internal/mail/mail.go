// Package mail watches a mailbox for command phrases.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sweeney/grow-monitor/internal/command"
)

// DefaultPhrase triggers the command when found in a message body.
const DefaultPhrase = "WIFI OFF"

// DefaultCommand turns the Pi's wifi radio off.
const DefaultCommand = "nmcli radio wifi off"

// DefaultInterval is how often the mailbox is checked.
const DefaultInterval = 60 * time.Second

// Message is an unseen mail reduced to what the listener needs.
type Message struct {
	From string
	Body string
}

// Mailbox returns unseen messages and marks them seen.
type Mailbox interface {
	Unseen(ctx context.Context) ([]Message, error)
}

// Listener runs Command once for every unseen message containing Phrase.
type Listener struct {
	Mailbox Mailbox
	Phrase  string
	Runner  command.Runner
	Command []string

	// AllowFrom, when non-empty, restricts triggering to these sender
	// addresses. Matching is case-insensitive.
	AllowFrom []string
}

// Poll checks the mailbox once and returns how many times the command ran.
func (l *Listener) Poll(ctx context.Context) (int, error) {
	if len(l.Command) == 0 {
		return 0, fmt.Errorf("mail: no command configured")
	}
	msgs, err := l.Mailbox.Unseen(ctx)
	if err != nil {
		return 0, err
	}

	phrase := strings.ToUpper(l.Phrase)
	var errs []error
	ran := 0
	for _, m := range msgs {
		if !strings.Contains(strings.ToUpper(m.Body), phrase) {
			continue
		}
		if !l.allowed(m.From) {
			log.Printf("mail: ignoring command from %q", m.From)
			continue
		}

		log.Printf("mail: command received from %q: running %s", m.From, strings.Join(l.Command, " "))
		if err := l.Runner.Run(ctx, l.Command[0], l.Command[1:]...); err != nil {
			errs = append(errs, err)
			continue
		}
		ran++
	}
	return ran, errors.Join(errs...)
}

func (l *Listener) allowed(from string) bool {
	if len(l.AllowFrom) == 0 {
		return true
	}
	for _, a := range l.AllowFrom {
		if strings.EqualFold(strings.TrimSpace(a), from) {
			return true
		}
	}
	return false
}

// Run polls immediately and then every interval until ctx is cancelled.
// Poll errors are logged and do not stop the loop.
func (l *Listener) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := l.Poll(ctx); err != nil {
			log.Printf("mail: poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
