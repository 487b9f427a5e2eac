// Package transcoder drives ffmpeg from a probed source movie to an output
// file: optional per-input pre-encodes, the main transcode with progress
// reporting, and validation of the result.
package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/ffwrap/internal/events"
	"github.com/smazurov/ffwrap/internal/ffmpeg"
	"github.com/smazurov/ffwrap/internal/logging"
	"github.com/smazurov/ffwrap/internal/metrics"
	"github.com/smazurov/ffwrap/internal/probe"
	"github.com/smazurov/ffwrap/internal/process"
)

// DefaultTimeout is the per-chunk timeout used by DefaultConfig.
const DefaultTimeout = 30 * time.Second

// ProgressFunc receives progress as a fraction of the source duration. It
// is not clamped.
type ProgressFunc func(progress float64)

// Config configures a Transcoder.
type Config struct {
	// Timeout is the longest ffmpeg may go without printing a progress
	// chunk. Zero disables it.
	Timeout time.Duration
	// Validate re-probes the output after the transcode.
	Validate bool
	// PreserveAspectRatio rewrites the resolution option to keep the
	// source aspect ratio.
	PreserveAspectRatio ffmpeg.Mode

	// PrefixOptions are compiled ahead of everything else. RawPrefix is
	// used verbatim instead when set.
	PrefixOptions ffmpeg.Options
	RawPrefix     string

	FFmpegBinary string
	// Prober describes per-input and output files. Defaults to ffprobe.
	Prober probe.Prober
	Bus    *events.Bus
	Logger logging.Logger
}

// DefaultConfig returns a config with the default timeout and validation
// enabled.
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		Validate:     true,
		FFmpegBinary: "ffmpeg",
	}
}

// Transcoder converts one source movie into one output file.
type Transcoder struct {
	movie   *probe.Movie
	output  string
	cfg     Config
	logger  logging.Logger
	runner  *process.Runner
	interim []string

	// options is nil when the caller passed a raw option string.
	options ffmpeg.Options
	raw     string

	command string
	log     string
	encoded *probe.Movie
}

// New prepares a transcode of movie to output. options is an ffmpeg.Options,
// a map[ffmpeg.Name]any, a raw option string or nil. With several source
// paths an interim path per input is allocated under <dir>/interim.
func New(movie *probe.Movie, output string, options any, cfg Config) (*Transcoder, error) {
	if movie == nil || len(movie.Paths) == 0 {
		return nil, ErrNoSource
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.Prober == nil {
		cfg.Prober = probe.New("")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger("transcoder")
	}

	t := &Transcoder{
		movie:  movie,
		output: output,
		cfg:    cfg,
		logger: cfg.Logger,
		runner: process.NewRunner(logging.GetLogger("process"),
			process.WithTimeout(cfg.Timeout),
			process.WithDecoder(ffmpeg.FixEncoding),
			process.WithLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel),
		),
	}

	interim, err := interimPaths(movie.Paths)
	if err != nil {
		return nil, err
	}
	t.interim = interim

	switch opts := options.(type) {
	case nil:
		t.options = t.withInputs(ffmpeg.Options{})
	case ffmpeg.Options:
		t.options = t.withInputs(opts.Clone())
	case map[ffmpeg.Name]any:
		t.options = t.withInputs(ffmpeg.Options(opts).Clone())
	case string:
		t.raw = opts
	default:
		return nil, fmt.Errorf("%w: %T", ErrOptionsFormat, options)
	}

	t.preserveAspectRatio()
	return t, nil
}

func interimPaths(paths []string) ([]string, error) {
	if len(paths) <= 1 {
		return paths, nil
	}

	interim := make([]string, 0, len(paths))
	for _, path := range paths {
		dir := filepath.Join(filepath.Dir(path), "interim")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create interim directory: %w", err)
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		interim = append(interim, filepath.Join(dir, base+"_"+uuid.NewString()+".mp4"))
	}
	return interim, nil
}

// withInputs points the options at the interim paths unless the caller
// named inputs already.
func (t *Transcoder) withInputs(opts ffmpeg.Options) ffmpeg.Options {
	if len(opts.InputPaths()) == 0 {
		opts[ffmpeg.Inputs] = t.interim
	}
	if _, ok := opts[ffmpeg.AnyStreamsContainAudio]; !ok {
		opts[ffmpeg.AnyStreamsContainAudio] = t.movie.AnyStreamsContainAudio()
	}
	return opts
}

func (t *Transcoder) preserveAspectRatio() {
	if t.options == nil || t.cfg.PreserveAspectRatio == ffmpeg.ModeNone {
		return
	}
	aspect, ok := t.movie.CalculatedAspectRatio()
	if !ok {
		return
	}
	width, height, ok := t.options.Dimensions()
	if !ok {
		return
	}

	w, h := ffmpeg.PreserveAspectRatio(t.cfg.PreserveAspectRatio, aspect, width, height, t.movie.RotatedOdd90())
	t.options[ffmpeg.Resolution] = fmt.Sprintf("%dx%d", w, h)
	t.logger.Debug("Preserved aspect ratio", "mode", t.cfg.PreserveAspectRatio, "from", fmt.Sprintf("%dx%d", width, height), "to", t.options[ffmpeg.Resolution])
}

// Options returns the options the main transcode compiles, nil in raw mode.
func (t *Transcoder) Options() ffmpeg.Options {
	return t.options
}

// InterimPaths returns the inputs of the main transcode.
func (t *Transcoder) InterimPaths() []string {
	return t.interim
}

// Arguments returns the option string of the main transcode. RawPrefix wins
// over PrefixOptions. Prefix options are emitted as given, ahead of every
// compiled option, and never contribute a derived -aspect.
func (t *Transcoder) Arguments() string {
	if t.options != nil && t.cfg.RawPrefix == "" {
		return ffmpeg.Compile(t.options, t.cfg.PrefixOptions)
	}

	prefix := t.cfg.RawPrefix
	if prefix == "" {
		prefix = ffmpeg.Compile(nil, t.cfg.PrefixOptions)
	}

	var args string
	if t.options != nil {
		args = ffmpeg.Compile(t.options, nil)
	} else {
		args = strings.TrimSpace(ffmpeg.InputArgs(t.interim) + " " + t.raw)
	}

	if prefix == "" {
		return args
	}
	return prefix + " " + args
}

// Command returns the main transcode command line.
func (t *Transcoder) Command() string {
	return ffmpeg.BuildTranscodeCommand(t.cfg.FFmpegBinary, t.Arguments(), t.output)
}

// Output returns everything ffmpeg printed during the last main transcode.
func (t *Transcoder) Output() string {
	return t.log
}

// Run pre-encodes when needed, transcodes and, when validation is on,
// returns the probed output. Without validation it returns nil, nil after
// a transcode that was not hung or canceled.
func (t *Transcoder) Run(ctx context.Context, progress ProgressFunc) (*probe.Movie, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	started := time.Now()
	t.command = t.Command()

	t.cfg.Bus.Publish(events.TranscodeStartedEvent{
		Inputs:    t.movie.Paths,
		Output:    t.output,
		Command:   t.command,
		Timestamp: timestamp(),
	})
	defer metrics.DeleteTranscodeMetrics(t.output)

	if err := t.preEncode(ctx, progress); err != nil {
		t.fail(err, started)
		return nil, err
	}

	if err := t.transcode(ctx, progress); err != nil {
		t.fail(err, started)
		return nil, err
	}

	if !t.cfg.Validate {
		t.complete(false, started)
		return nil, nil
	}

	if checks := t.validate(ctx); len(checks) > 0 {
		err := &RunError{Err: ErrEncodingFailed, Command: t.command, Output: t.log, Checks: checks}
		t.logger.Error("Failed encoding", "command", t.command, "checks", strings.Join(checks, ", "))
		t.fail(err, started)
		return nil, err
	}

	progress(1.0)
	t.logger.Info("Transcoding succeeded", "inputs", strings.Join(t.movie.Paths, ", "), "output", t.output)
	t.complete(true, started)
	return t.encoded, nil
}

func (t *Transcoder) transcode(ctx context.Context, progress ProgressFunc) error {
	t.logger.Info("Running transcoding", "command", t.command)
	progress(0.0)

	res := t.runner.Run(ctx, t.command, func(chunk string) {
		seconds, ok := ffmpeg.ParseProgressTime(chunk)
		if !ok {
			return
		}
		p := ffmpeg.Progress(seconds, t.movie.Duration)
		t.report(chunk, p)
		progress(p)
	})
	t.log = res.Output

	switch res.Status {
	case process.StatusTimedOut:
		t.logger.Error("Process hung", "command", t.command, "output", res.Output)
		return &RunError{Err: ErrProcessHung, Command: t.command, Output: res.Output}
	case process.StatusCanceled:
		return fmt.Errorf("transcode canceled: %w", res.Err)
	case process.StatusFailed:
		return &RunError{Err: fmt.Errorf("%w: %w", ErrEncodingFailed, res.Err), Command: t.command, Output: res.Output}
	}

	if res.ExitCode != 0 {
		// Validation decides; a non-zero exit alone does not fail the run.
		t.logger.Warn("ffmpeg exited with non-zero status", "exit_code", res.ExitCode, "output", t.output)
	}
	return nil
}

func (t *Transcoder) report(chunk string, progress float64) {
	metrics.SetTranscodeProgress(t.output, progress)
	stats := ffmpeg.ParseStats(chunk)
	if stats.HasFPS {
		metrics.SetTranscodeFPS(t.output, stats.FPS)
	}
	if stats.HasSpeed {
		metrics.SetTranscodeSpeed(t.output, stats.Speed)
	}
	t.cfg.Bus.Publish(events.TranscodeProgressEvent{
		Output:    t.output,
		Progress:  progress,
		Timestamp: timestamp(),
	})
}

// validate returns the failed checks. It stops at the first failure.
func (t *Transcoder) validate(ctx context.Context) []string {
	if _, err := os.Stat(t.output); err != nil {
		return []string{"no output file created"}
	}

	encoded, err := t.cfg.Prober.Probe(ctx, t.output)
	if err != nil {
		t.logger.Warn("Failed to probe output", "output", t.output, "error", err)
		return []string{"encoded file is invalid"}
	}
	if !encoded.Valid() {
		return []string{"encoded file is invalid"}
	}
	t.encoded = encoded
	return nil
}

func (t *Transcoder) complete(validated bool, started time.Time) {
	elapsed := time.Since(started)
	metrics.RecordTranscode(metrics.OutcomeSuccess, elapsed)
	t.cfg.Bus.Publish(events.TranscodeCompletedEvent{
		Output:     t.output,
		Validated:  validated,
		DurationMS: elapsed.Milliseconds(),
		Media:      t.movie.Duration,
		Timestamp:  timestamp(),
	})
}

func (t *Transcoder) fail(err error, started time.Time) {
	outcome := outcomeOf(err)
	metrics.RecordTranscode(outcome, time.Since(started))

	ev := events.TranscodeFailedEvent{
		Output:    t.output,
		Reason:    outcome,
		Error:     err.Error(),
		Timestamp: timestamp(),
	}
	var runErr *RunError
	if errors.As(err, &runErr) {
		ev.Checks = runErr.Checks
		// The full output is in the log; keep the event small.
		ev.Error = runErr.Err.Error()
	}
	t.cfg.Bus.Publish(ev)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrProcessHung):
		return metrics.OutcomeTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
