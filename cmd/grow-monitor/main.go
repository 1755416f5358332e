// Command grow-monitor takes one combined sample of the Arduino sensors and
// the Grow HAT moisture channels, stores it in SQLite and records any new
// pump events from the system log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sweeney/grow-monitor/internal/command"
	"github.com/sweeney/grow-monitor/internal/grow"
	"github.com/sweeney/grow-monitor/internal/moisture"
	"github.com/sweeney/grow-monitor/internal/mqtt"
	"github.com/sweeney/grow-monitor/internal/pumplog"
	"github.com/sweeney/grow-monitor/internal/serial"
	"github.com/sweeney/grow-monitor/internal/store"
)

type config struct {
	dbPath       string
	device       string
	baud         int
	readTimeout  time.Duration
	maxLines     int
	chip         string
	pins         []int
	calibrations []moisture.Calibration
	logPaths     []string
	broker       string
	pauseService string
	sudo         bool
}

// defaultPauseService is the Grow HAT watering service, which holds the
// moisture GPIO lines while it runs.
const defaultPauseService = "grow-monitor.service"

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func parseFlags(args []string) (config, error) {
	fs := flag.NewFlagSet("grow-monitor", flag.ContinueOnError)
	dbPath := fs.String("db", store.DefaultPath, "SQLite database path")
	device := fs.String("serial", serial.DefaultDevice, "Arduino serial device")
	baud := fs.Int("baud", serial.DefaultBaud, "Serial baud rate")
	readTimeout := fs.Duration("read-timeout", serial.DefaultTimeout, "Serial per-line read timeout")
	maxLines := fs.Int("max-lines", serial.DefaultMaxLines, "Maximum serial lines to read")
	chip := fs.String("chip", moisture.DefaultChip, "GPIO chip for the moisture channels")
	pins := fs.String("pins", "23,8,25", "BCM pins of moisture channels 1..3")
	dry := fs.String("dry", "27,27,27", "Dry calibration point per channel")
	wet := fs.String("wet", "3,3,3", "Wet calibration point per channel")
	logPaths := fs.String("syslog", strings.Join(pumplog.DefaultPaths, ","), "Comma-separated system logs to scan for pump events")
	broker := fs.String("broker", "", "MQTT broker address (empty to disable)")
	pauseService := fs.String("pause-service", defaultPauseService, "systemd unit stopped while sampling and restarted afterwards (empty to disable)")
	sudo := fs.Bool("sudo", true, "Run systemctl through sudo")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	pinList, err := moisture.ParsePins(*pins)
	if err != nil {
		return config{}, fmt.Errorf("-pins: %w", err)
	}
	cals, err := moisture.ParseCalibrations(*dry, *wet)
	if err != nil {
		return config{}, fmt.Errorf("calibration: %w", err)
	}

	return config{
		dbPath:       *dbPath,
		device:       *device,
		baud:         *baud,
		readTimeout:  *readTimeout,
		maxLines:     *maxLines,
		chip:         *chip,
		pins:         pinList,
		calibrations: cals,
		logPaths:     splitList(*logPaths),
		broker:       *broker,
		pauseService: *pauseService,
		sudo:         *sudo,
	}, nil
}

func run(ctx context.Context, cfg config) error {
	if len(cfg.pins) != grow.MoistureChannels || len(cfg.calibrations) != grow.MoistureChannels {
		return fmt.Errorf("need %d moisture pins and calibrations, got %d and %d",
			grow.MoistureChannels, len(cfg.pins), len(cfg.calibrations))
	}

	if cfg.pauseService != "" {
		resume := pauseService(ctx, command.ExecRunner{Sudo: cfg.sudo}, cfg.pauseService)
		defer resume()
	}

	st, err := store.Open(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	port, err := serial.Open(cfg.device, cfg.baud, cfg.readTimeout)
	if err != nil {
		return fmt.Errorf("open serial: %w", err)
	}
	defer port.Close()

	sensors, err := moisture.OpenPulseSensors(cfg.chip, cfg.pins)
	if err != nil {
		return fmt.Errorf("init moisture sensors: %w", err)
	}
	defer moisture.CloseAll(sensors)

	var publisher mqtt.Publisher
	if cfg.broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.broker, "")
		if err != nil {
			log.Printf("mqtt unavailable, continuing without it: %v", err)
		} else {
			publisher = p
			defer p.Close()
		}
	}

	return sample(sampleDeps{
		lines:     port,
		maxLines:  cfg.maxLines,
		moisture:  moisture.NewSampler(sensors, cfg.calibrations),
		store:     st,
		logPaths:  cfg.logPaths,
		publisher: publisher,
	}, time.Now())
}

// moistureSampler is satisfied by *moisture.Sampler.
type moistureSampler interface {
	Sample() ([]float64, error)
}

// readingStore is satisfied by *store.Store.
type readingStore interface {
	pumplog.Inserter
	InsertReading(r grow.SensorReading) error
}

type sampleDeps struct {
	lines     serial.LineSource
	maxLines  int
	moisture  moistureSampler
	store     readingStore
	logPaths  []string
	publisher mqtt.Publisher // nil disables publishing
}

// sample runs one pass: read sensors, validate, persist, then publish.
// Missing Arduino values are stored as NULL. A reading with any failed
// moisture channel is not stored. Pump log failures are logged.
func sample(d sampleDeps, now time.Time) error {
	reading := grow.SensorReading{Timestamp: grow.FormatTimestamp(now)}

	frames := serial.Collect(d.lines, d.maxLines, []string{serial.SensorUV, serial.SensorAmbientTemp})
	if f, ok := frames[serial.SensorAmbientTemp]; ok {
		reading.Temperature = grow.Float(f.Value)
	}
	if f, ok := frames[serial.SensorUV]; ok {
		reading.Light = grow.Float(f.Value)
	}
	log.Printf("arduino: temp=%s uv=%s", formatOptional(reading.Temperature), formatOptional(reading.Light))
	if missing := serial.Missing(frames, []string{serial.SensorUV, serial.SensorAmbientTemp}); len(missing) > 0 {
		log.Printf("arduino: no value for %v", missing)
	}

	stored := false
	pct, err := d.moisture.Sample()
	if err != nil {
		log.Printf("skipping database log due to invalid moisture data: %v", err)
	} else {
		copy(reading.Moisture[:], pct)
		log.Printf("moisture: 1=%.1f%% 2=%.1f%% 3=%.1f%%", pct[0], pct[1], pct[2])
		if err := d.store.InsertReading(reading); err != nil {
			return fmt.Errorf("store reading: %w", err)
		}
		stored = true
		log.Printf("saved reading %s", reading.Timestamp)
	}

	added, err := pumplog.Sync(d.store, d.logPaths...)
	if err != nil {
		log.Printf("pump log error: %v", err)
	}

	if d.publisher == nil {
		return nil
	}
	if stored {
		if err := d.publisher.PublishReading(reading); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
	for _, e := range added {
		if err := d.publisher.PublishPumpEvent(e); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
	return nil
}

// pauseService stops unit and returns a func that starts it again. The
// watering service holds the moisture GPIO lines while it runs.
func pauseService(ctx context.Context, runner command.Runner, unit string) (resume func()) {
	log.Printf("stopping %s", unit)
	if err := runner.Run(ctx, "systemctl", "stop", unit); err != nil {
		log.Printf("stop %s: %v", unit, err)
	}
	return func() {
		log.Printf("restarting %s", unit)
		// The caller's context may already be done; the restart must still run.
		if err := runner.Run(context.Background(), "systemctl", "start", unit); err != nil {
			log.Printf("start %s: %v", unit, err)
		}
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *v)
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
