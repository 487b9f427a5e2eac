package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ProgressMarker starts ffmpeg's throughput report. Diagnostic output is read
// in chunks ending at this marker.
const ProgressMarker = "size="

var (
	timePattern  = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.\d+)`)
	statsPattern = regexp.MustCompile(`(frame|fps|speed)=\s*([\d.]+)`)
)

// Stats holds the throughput figures of a progress report. Fields are only
// meaningful when the matching Has flag is set.
type Stats struct {
	Frame    int64
	FPS      float64
	Speed    float64
	HasFrame bool
	HasFPS   bool
	HasSpeed bool
}

// ParseStats extracts frame, fps and speed figures from a chunk. A report
// can straddle two chunks, so any subset may be present.
func ParseStats(chunk string) Stats {
	var st Stats
	for _, m := range statsPattern.FindAllStringSubmatch(chunk, -1) {
		switch m[1] {
		case "frame":
			if n, err := strconv.ParseInt(strings.TrimSuffix(m[2], "."), 10, 64); err == nil {
				st.Frame, st.HasFrame = n, true
			}
		case "fps":
			if f, err := strconv.ParseFloat(m[2], 64); err == nil {
				st.FPS, st.HasFPS = f, true
			}
		case "speed":
			if f, err := strconv.ParseFloat(m[2], 64); err == nil {
				st.Speed, st.HasSpeed = f, true
			}
		}
	}
	return st
}

// ParseProgressTime returns the elapsed encode time in seconds carried by a
// "time=HH:MM:SS.ss" marker. ok is false when the chunk carries no marker at
// all; a malformed marker yields 0 with ok true.
func ParseProgressTime(chunk string) (seconds float64, ok bool) {
	if !strings.Contains(chunk, "time=") {
		return 0, false
	}
	m := timePattern.FindStringSubmatch(chunk)
	if m == nil {
		return 0, true
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.ParseFloat(m[3], 64)
	return float64(h)*3600 + float64(min)*60 + s, true
}

// Progress is the fraction of duration covered by seconds. It is not clamped:
// wrong duration metadata can push it past 1. An unknown duration yields 0.
func Progress(seconds, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return seconds / duration
}

// FixEncoding returns s unchanged when it is valid UTF-8 and otherwise
// re-reads its bytes as ISO-8859-1.
func FixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "?")
	}
	return out
}

// ParseLogLevel extracts the level from an ffmpeg log line printed with
// "-loglevel level+info", e.g. "[info] message" or
// "[component @ 0x...] [level] message". The level is stripped and the
// component kept. Lines without a level report "info".
func ParseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}

	if bracket := line[1:end]; isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if next := strings.Index(rest, "] "); next != -1 && isLogLevel(rest[1:next]) {
			return rest[1:next], component + rest[next+2:]
		}
	}

	return "info", line
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
