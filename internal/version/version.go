package version

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
)

// ErrNoVersion is returned when a tool prints no recognizable version line.
var ErrNoVersion = errors.New("no version line in output")

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Tool runs "<binary> -version" and returns the version it reports, e.g.
// "6.1.1" for an ffmpeg build printing "ffmpeg version 6.1.1 Copyright ...".
func Tool(ctx context.Context, binary string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("run %s -version: %w", binary, err)
	}
	return ParseToolVersion(out)
}

// ParseToolVersion extracts the version from the first "<name> version X"
// line of -version output.
func ParseToolVersion(out []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i := 0; i+2 < len(fields); i++ {
			if fields[i+1] == "version" {
				return fields[i+2], nil
			}
		}
	}
	return "", ErrNoVersion
}
