// Package blackdetect finds black intervals in a video with ffprobe's
// blackdetect filter.
package blackdetect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
)

// Tag key suffixes printed by ffprobe for the blackdetect filter.
const (
	StartTag = "black_start"
	EndTag   = "black_end"
)

// Interval is a closed black range in source seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the interval.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Extractor pairs black_start/black_end tags into intervals as lines
// arrive. Repeated lines are ignored wherever they appear.
type Extractor struct {
	seen      map[string]struct{}
	start     *float64
	end       *float64
	intervals []Interval
}

// NewExtractor creates an empty extractor.
func NewExtractor() *Extractor {
	return &Extractor{seen: make(map[string]struct{})}
}

// Feed consumes one line. A start overwrites any unpaired start; an
// interval is emitted as soon as both bounds are known.
func (e *Extractor) Feed(line string) {
	line = strings.TrimRight(ffmpeg.FixEncoding(line), "\r")
	if _, dup := e.seen[line]; dup {
		return
	}
	e.seen[line] = struct{}{}

	key, value, found := strings.Cut(line, "=")
	if !found || key == "" || value == "" {
		return
	}

	t := leadingFloat(value)
	switch {
	case strings.HasSuffix(key, StartTag):
		e.start = &t
	case strings.HasSuffix(key, EndTag):
		e.end = &t
	}

	if e.start != nil && e.end != nil {
		e.intervals = append(e.intervals, Interval{Start: *e.start, End: *e.end})
		e.start, e.end = nil, nil
	}
}

// Intervals returns the completed intervals in closing order. A trailing
// start without an end is never included.
func (e *Extractor) Intervals() []Interval {
	out := make([]Interval, len(e.intervals))
	copy(out, e.intervals)
	return out
}

// Extract pairs the tags found in lines.
func Extract(lines []string) []Interval {
	e := NewExtractor()
	for _, line := range lines {
		e.Feed(line)
	}
	return e.Intervals()
}

// ExtractText splits text into lines and pairs the tags found.
func ExtractText(text string) []Interval {
	return Extract(strings.Split(text, "\n"))
}

var floatPrefix = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// leadingFloat parses the numeric prefix of s; junk yields 0.
func leadingFloat(s string) float64 {
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0
	}
	return f
}
