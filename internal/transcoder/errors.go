package transcoder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProcessHung is wrapped when ffmpeg stops reporting progress for
	// longer than the timeout.
	ErrProcessHung = errors.New("process hung")
	// ErrEncodingFailed is wrapped when a pass exits unsuccessfully or the
	// output fails validation.
	ErrEncodingFailed = errors.New("failed encoding")
	// ErrOptionsFormat is returned by New for an options value of an
	// unsupported type.
	ErrOptionsFormat = errors.New("unknown options format, should be ffmpeg.Options, map[ffmpeg.Name]any or string")
	// ErrNoSource is returned by New without a source movie.
	ErrNoSource = errors.New("no source movie")
)

// RunError describes a failed pass with everything ffmpeg printed.
type RunError struct {
	Err     error
	Command string
	Output  string
	// Checks lists the validation checks that failed.
	Checks []string
}

func (e *RunError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if len(e.Checks) > 0 {
		fmt.Fprintf(&b, ". Errors: %s.", strings.Join(e.Checks, ", "))
	}
	b.WriteString(" Full output: ")
	b.WriteString(e.Output)
	return b.String()
}

func (e *RunError) Unwrap() error {
	return e.Err
}
