package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/config"
	"github.com/smazurov/ffwrap/internal/events"
	"github.com/smazurov/ffwrap/internal/logging"
	"github.com/smazurov/ffwrap/internal/metrics"
	"github.com/smazurov/ffwrap/internal/probe"
	"github.com/smazurov/ffwrap/internal/transcoder"
)

// Options for the CLI - flat structure with toml mapping. Field names map
// to flag names ("LogLevel" is --log-level).
type Options struct {
	Config string

	FFmpeg  string        `toml:"ffmpeg.binary" env:"FFMPEG"`
	FFprobe string        `toml:"ffmpeg.ffprobe" env:"FFPROBE"`
	Timeout time.Duration `toml:"transcode.timeout" env:"TIMEOUT"`

	LogLevel   string `toml:"logging.level" env:"LOG_LEVEL"`
	LogFormat  string `toml:"logging.format" env:"LOG_FORMAT"`
	LogJournal bool   `toml:"logging.journal" env:"LOG_JOURNAL"`

	MetricsTextfile string `toml:"metrics.textfile" env:"METRICS_TEXTFILE"`
	Events          string `toml:"events.output" env:"EVENTS"`
}

// commandContext carries state shared by every subcommand: resolved
// options, the event bus and its JSON sink.
type commandContext struct {
	opts Options

	bus        *events.Bus
	writer     *events.JSONWriter
	eventsFile io.Closer

	presetsOnce sync.Once
	presets     config.Presets
	presetsErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{
		opts: Options{
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
			Timeout:   transcoder.DefaultTimeout,
			LogLevel:  "info",
			LogFormat: "text",
		},
		bus: events.New(),
	}
}

// setup resolves configuration and starts logging and the event sink.
func (c *commandContext) setup(cmd *cobra.Command) error {
	if err := config.LoadConfig(&c.opts, cmd); err != nil {
		return err
	}

	logCfg := config.LoadLoggingConfig(c.opts.Config)
	logCfg.Level = c.opts.LogLevel
	logCfg.Format = c.opts.LogFormat
	logCfg.Journal = c.opts.LogJournal
	logging.Initialize(logCfg)

	switch c.opts.Events {
	case "":
	case "-":
		c.writer = events.NewJSONWriter(c.bus, cmd.OutOrStdout())
	default:
		f, err := os.Create(c.opts.Events)
		if err != nil {
			return fmt.Errorf("open events output: %w", err)
		}
		c.eventsFile = f
		c.writer = events.NewJSONWriter(c.bus, f)
	}
	return nil
}

// finish drains the event sink and writes the metrics textfile. It runs
// whether or not the command succeeded.
func (c *commandContext) finish() error {
	var errs []error
	if c.writer != nil {
		if err := c.writer.Flush(2 * time.Second); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, c.writer.Close())
	}
	if c.eventsFile != nil {
		errs = append(errs, c.eventsFile.Close())
	}
	if c.opts.MetricsTextfile != "" {
		errs = append(errs, metrics.WriteTextfile(c.opts.MetricsTextfile))
	}
	return errors.Join(errs...)
}

func (c *commandContext) prober() *probe.FFProbe {
	return probe.New(c.opts.FFprobe)
}

func (c *commandContext) transcoderConfig() transcoder.Config {
	cfg := transcoder.DefaultConfig()
	cfg.Timeout = c.opts.Timeout
	cfg.FFmpegBinary = c.opts.FFmpeg
	cfg.Prober = c.prober()
	cfg.Bus = c.bus
	return cfg
}

func (c *commandContext) loadPresets() (config.Presets, error) {
	c.presetsOnce.Do(func() {
		var unknown []string
		c.presets, unknown, c.presetsErr = config.LoadPresets(c.opts.Config)
		if len(unknown) > 0 {
			logging.GetLogger("config").Warn("Ignoring unknown preset options", "keys", unknown)
		}
	})
	return c.presets, c.presetsErr
}
