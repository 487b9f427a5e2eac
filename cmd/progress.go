package cmd

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/smazurov/ffwrap/internal/transcoder"
)

const progressSteps = 1000

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newProgress returns a progress callback drawing a bar on w, or nil when
// w is not a terminal. The returned finish func clears the bar.
func newProgress(w io.Writer, description string) (transcoder.ProgressFunc, func()) {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f) {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	progress := func(p float64) {
		_ = bar.Set(progressStep(p))
	}
	return progress, func() { _ = bar.Finish() }
}

// progressStep maps a progress fraction onto the bar. Fractions past 1 are
// possible with wrong duration metadata and are pinned to the end.
func progressStep(p float64) int {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return progressSteps
	default:
		return int(p * progressSteps)
	}
}
