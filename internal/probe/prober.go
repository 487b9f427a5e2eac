package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
	"github.com/smazurov/ffwrap/internal/logging"
)

// ErrNoPaths is returned when Probe is called without a path.
var ErrNoPaths = errors.New("probe: no paths given")

// Prober describes media files.
type Prober interface {
	Probe(ctx context.Context, paths ...string) (*Movie, error)
}

// FFProbe runs the ffprobe binary.
type FFProbe struct {
	binary string
	logger *slog.Logger
}

// New creates an FFProbe using binary, "ffprobe" when empty.
func New(binary string) *FFProbe {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{binary: binary, logger: logging.GetLogger("probe")}
}

// Probe describes every path and combines the results. Local paths must
// exist; anything with a URL scheme is handed to ffprobe as is. A file
// ffprobe cannot read yields an invalid Movie, not an error.
func (p *FFProbe) Probe(ctx context.Context, paths ...string) (*Movie, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	movies := make([]*Movie, 0, len(paths))
	for _, path := range paths {
		m, err := p.probeOne(ctx, path)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return Combine(movies), nil
}

func (p *FFProbe) probeOne(ctx context.Context, path string) (*Movie, error) {
	if !IsRemote(path) {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("probe %s: %w", path, err)
		}
	}

	cmd := exec.CommandContext(ctx, p.binary, ffmpeg.BuildProbeArgs(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runErr != nil && cmd.ProcessState == nil {
		return nil, fmt.Errorf("run %s: %w", p.binary, runErr)
	}

	if stdout.Len() == 0 {
		msg := strings.TrimSpace(ffmpeg.FixEncoding(stderr.String()))
		if msg == "" && runErr != nil {
			msg = runErr.Error()
		}
		p.logger.Debug("ffprobe produced no output", "path", path, "error", msg)
		return &Movie{Paths: []string{path}, Error: msg}, nil
	}

	m, err := ParseJSON(path, stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if runErr != nil && m.Error == "" {
		m.Error = runErr.Error()
	}

	p.logger.Debug("Probed media", "path", path, "valid", m.Valid(), "duration", m.Duration, "resolution", m.Resolution())
	return m, nil
}

// IsRemote reports whether path carries a URL scheme.
func IsRemote(path string) bool {
	scheme, _, found := strings.Cut(path, "://")
	if !found || scheme == "" {
		return false
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
