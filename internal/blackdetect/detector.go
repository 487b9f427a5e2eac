package blackdetect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/smazurov/ffwrap/internal/events"
	"github.com/smazurov/ffwrap/internal/ffmpeg"
	"github.com/smazurov/ffwrap/internal/logging"
	"github.com/smazurov/ffwrap/internal/metrics"
)

// ErrDetect is wrapped by every DetectError.
var ErrDetect = errors.New("failed to detect black frames")

// DetectError reports diagnostic output from ffprobe. Any stderr text at
// all makes the scan invalid.
type DetectError struct {
	Output string
	Stderr string
}

func (e *DetectError) Error() string {
	return fmt.Sprintf("%v: %s :: %s", ErrDetect, e.Output, e.Stderr)
}

func (e *DetectError) Unwrap() error {
	return ErrDetect
}

// Config configures a Detector.
type Config struct {
	Binary         string // ffprobe executable, "ffprobe" when empty
	MinDuration    float64
	PixelThreshold float64
	Bus            *events.Bus
}

// Detector scans one input for black intervals.
type Detector struct {
	input     string
	cfg       Config
	logger    *slog.Logger
	valid     bool
	output    string
	intervals []Interval
}

// New creates a detector for input.
func New(input string, cfg Config) *Detector {
	if cfg.Binary == "" {
		cfg.Binary = "ffprobe"
	}
	return &Detector{
		input:  input,
		cfg:    cfg,
		logger: logging.GetLogger("blackdetect"),
	}
}

// Args returns the ffprobe arguments the detector runs.
func (d *Detector) Args() []string {
	return ffmpeg.BuildBlackDetectArgs(&ffmpeg.BlackDetectParams{
		Binary:         d.cfg.Binary,
		Input:          d.input,
		MinDuration:    d.cfg.MinDuration,
		PixelThreshold: d.cfg.PixelThreshold,
	})
}

// Run scans the input and returns the intervals found. Non-empty stderr
// leaves the detector invalid and returns a *DetectError carrying both
// streams.
func (d *Detector) Run(ctx context.Context) ([]Interval, error) {
	d.valid = false
	d.intervals = nil

	args := d.Args()
	d.logger.Info("Detecting black frames", "input", d.input)
	d.logger.Debug("Running ffprobe", "binary", d.cfg.Binary, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, d.cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	d.output = ffmpeg.FixEncoding(stdout.String())
	errText := ffmpeg.FixEncoding(stderr.String())

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runErr != nil && cmd.ProcessState == nil {
		return nil, fmt.Errorf("run %s: %w", d.cfg.Binary, runErr)
	}

	d.intervals = ExtractText(d.output)

	if errText != "" {
		d.logger.Error("ffprobe reported errors", "input", d.input, "stderr", strings.TrimSpace(errText))
		d.publish()
		return d.Intervals(), &DetectError{Output: d.output, Stderr: errText}
	}

	d.valid = true
	d.logger.Info("Black frame detection finished", "input", d.input, "intervals", len(d.intervals))
	d.publish()
	return d.Intervals(), nil
}

func (d *Detector) publish() {
	metrics.RecordBlackDetect(d.valid, len(d.intervals))
	d.cfg.Bus.Publish(events.BlackDetectCompletedEvent{
		Input:     d.input,
		Intervals: len(d.intervals),
		Valid:     d.valid,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Valid reports whether the last run finished without diagnostics.
func (d *Detector) Valid() bool {
	return d.valid
}

// Output returns the raw ffprobe output of the last run.
func (d *Detector) Output() string {
	return d.output
}

// Intervals returns the intervals of the last run.
func (d *Detector) Intervals() []Interval {
	out := make([]Interval, len(d.intervals))
	copy(out, d.intervals)
	return out
}
