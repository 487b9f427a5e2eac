package transcoder

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/smazurov/ffwrap/internal/events"
	"github.com/smazurov/ffwrap/internal/ffmpeg"
	"github.com/smazurov/ffwrap/internal/metrics"
	"github.com/smazurov/ffwrap/internal/probe"
	"github.com/smazurov/ffwrap/internal/process"
)

// Interim files are normalized onto a 16:9 canvas at no less than
// minFrameRate frames per second.
const (
	minFrameRate = 30
	maxFrameRate = 300
	canvasWidth  = 16
	canvasHeight = 9
)

// preEncode converts every input of a multi-input transcode to a common
// frame rate, canvas and audio layout. Steps run in order and the first
// failure stops the rest.
func (t *Transcoder) preEncode(ctx context.Context, progress ProgressFunc) error {
	if len(t.interim) <= 1 {
		return nil
	}

	inputs, err := t.inputMovies(ctx)
	if err != nil {
		return err
	}

	rate := t.preEncodeFrameRate()
	width, height := canvas(t.movie, inputs)
	anyAudio := t.movie.AnyStreamsContainAudio()

	opts := t.raw
	if t.options != nil {
		opts = ffmpeg.CompileMinimal(t.options)
	}

	for i, input := range inputs {
		params := &ffmpeg.PreEncodeParams{
			Binary:        t.cfg.FFmpegBinary,
			Input:         t.movie.Paths[i],
			Output:        t.interim[i],
			Options:       opts,
			FrameRate:     rate,
			Width:         width,
			Height:        height,
			InputHasAudio: len(input.AudioStreams) > 0,
			AnyInputAudio: anyAudio,
		}
		if err := t.preEncodeOne(ctx, params, i, progress); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transcoder) preEncodeOne(ctx context.Context, p *ffmpeg.PreEncodeParams, index int, progress ProgressFunc) error {
	command := ffmpeg.BuildPreEncodeCommand(p)
	t.logger.Info("Running pre-encoding", "input", p.Input, "step", index+1, "total", len(t.interim), "command", command)
	progress(0.0)

	res := t.runner.Run(ctx, command, nil)

	var err error
	switch {
	case res.Status == process.StatusTimedOut:
		t.logger.Error("Process hung", "command", command, "output", res.Output)
		err = &RunError{Err: ErrProcessHung, Command: command, Output: res.Output}
	case res.Status == process.StatusCanceled:
		err = fmt.Errorf("pre-encode canceled: %w", res.Err)
	case !res.Success():
		t.logger.Error("Process failed", "command", command, "exit_code", res.ExitCode, "output", res.Output)
		err = &RunError{
			Err:     fmt.Errorf("%w: pre-encode of %s", ErrEncodingFailed, p.Input),
			Command: command,
			Output:  res.Output,
		}
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = outcomeOf(err)
		if rmErr := os.RemoveAll(p.Output); rmErr != nil {
			t.logger.Warn("Failed to delete interim file", "path", p.Output, "error", rmErr)
		}
	}
	metrics.RecordPreEncode(outcome)
	t.cfg.Bus.Publish(events.PreEncodeEvent{
		Input:     p.Input,
		Interim:   p.Output,
		Index:     index,
		Total:     len(t.interim),
		Outcome:   outcome,
		Timestamp: timestamp(),
	})
	return err
}

// inputMovies returns one description per source path, reusing the
// per-input descriptions of a combined probe when present.
func (t *Transcoder) inputMovies(ctx context.Context) ([]*probe.Movie, error) {
	if len(t.movie.Inputs) == len(t.movie.Paths) {
		return t.movie.Inputs, nil
	}

	inputs := make([]*probe.Movie, 0, len(t.movie.Paths))
	for _, path := range t.movie.Paths {
		m, err := t.cfg.Prober.Probe(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("probe input %s: %w", path, err)
		}
		inputs = append(inputs, m)
	}
	return inputs, nil
}

// preEncodeFrameRate is the frame_rate option, or the source rate, raised
// to at least 30. Anything above 300 is treated as bogus metadata.
func (t *Transcoder) preEncodeFrameRate() float64 {
	rate := t.movie.FrameRate
	if t.options != nil {
		if v, ok := t.options[ffmpeg.FrameRate]; ok {
			if f, err := strconv.ParseFloat(fmt.Sprint(v), 64); err == nil {
				rate = f
			}
		}
	}
	rate = math.Max(rate, minFrameRate)
	if rate > maxFrameRate {
		rate = minFrameRate
	}
	return rate
}

// canvas returns the largest width and height across the source and its
// inputs, with one side enlarged to reach 16:9.
func canvas(source *probe.Movie, inputs []*probe.Movie) (int, int) {
	width, height := source.Width, source.Height
	for _, m := range inputs {
		width = max(width, m.Width)
		height = max(height, m.Height)
	}

	convertedWidth := int(math.Ceil(float64(height*canvasWidth) / canvasHeight))
	convertedHeight := int(math.Ceil(float64(width*canvasHeight) / canvasWidth))
	if convertedWidth >= width {
		return convertedWidth, height
	}
	return width, convertedHeight
}
