// Command mail-listener watches an IMAP inbox and runs a system command when
// an unseen message contains the command phrase.
//
// Anyone who can send mail to the inbox can trigger the command unless -from
// restricts the senders.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/grow-monitor/internal/command"
	"github.com/sweeney/grow-monitor/internal/mail"
)

// envPassword holds the mailbox password (an app password for Gmail).
const envPassword = "MAIL_PASSWORD"

type config struct {
	server   string
	user     string
	password string
	phrase   string
	command  string
	sudo     bool
	from     []string
	once     bool
	interval time.Duration
}

func main() {
	server := flag.String("server", mail.DefaultServer, "IMAPS server address")
	user := flag.String("user", "", "Mailbox user name (required)")
	phrase := flag.String("phrase", mail.DefaultPhrase, "Phrase that triggers the command")
	cmdline := flag.String("command", mail.DefaultCommand, "Command to run")
	sudo := flag.Bool("sudo", true, "Run the command through sudo")
	from := flag.String("from", "", "Comma-separated sender addresses allowed to trigger the command (empty allows all)")
	once := flag.Bool("once", false, "Check the mailbox once and exit")
	interval := flag.Duration("interval", mail.DefaultInterval, "Time between mailbox checks")
	envFile := flag.String("env-file", "", "Optional file of KEY=value lines loaded before reading "+envPassword)

	flag.Parse()

	if err := loadEnv(*envFile); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config{
		server:   *server,
		user:     *user,
		password: os.Getenv(envPassword),
		phrase:   *phrase,
		command:  *cmdline,
		sudo:     *sudo,
		from:     splitList(*from),
		once:     *once,
		interval: *interval,
	}
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	listener, err := newListener(cfg, command.ExecRunner{Sudo: cfg.sudo})
	if err != nil {
		return err
	}

	if cfg.once {
		n, err := listener.Poll(ctx)
		if err != nil {
			return err
		}
		log.Printf("ran command %d time(s)", n)
		return nil
	}

	if cfg.interval <= 0 {
		return fmt.Errorf("-interval must be positive")
	}
	if len(cfg.from) == 0 {
		log.Printf("warning: any sender can trigger %q", cfg.command)
	}
	log.Printf("started: server=%s interval=%v phrase=%q", cfg.server, cfg.interval, cfg.phrase)
	listener.Run(ctx, cfg.interval)
	log.Printf("shutting down")
	return nil
}

func newListener(cfg config, runner command.Runner) (*mail.Listener, error) {
	if cfg.user == "" {
		return nil, fmt.Errorf("-user is required")
	}
	if cfg.password == "" {
		return nil, fmt.Errorf("%s is not set", envPassword)
	}
	if strings.TrimSpace(cfg.phrase) == "" {
		return nil, fmt.Errorf("-phrase must not be empty")
	}
	name, args, err := command.Split(cfg.command)
	if err != nil {
		return nil, err
	}

	return &mail.Listener{
		Mailbox: &mail.IMAPMailbox{
			Addr:     cfg.server,
			Username: cfg.user,
			Password: cfg.password,
		},
		Phrase:    cfg.phrase,
		Runner:    runner,
		Command:   append([]string{name}, args...),
		AllowFrom: cfg.from,
	}, nil
}

// loadEnv loads path into the environment. Variables already set win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
