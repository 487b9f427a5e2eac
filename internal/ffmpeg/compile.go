package ffmpeg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Category classifies a compiled token for ordering.
type Category int

// Token categories, in classification precedence order.
const (
	CategoryInput Category = iota
	CategorySeek
	CategoryCodec
	CategoryPreset
	CategoryComplexFilter
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategorySeek:
		return "seek"
	case CategoryCodec:
		return "codec"
	case CategoryPreset:
		return "preset"
	case CategoryComplexFilter:
		return "complex_filter"
	default:
		return "other"
	}
}

// Argument is one converted option.
type Argument struct {
	Name     Name
	Token    string
	Category Category
}

var presetPattern = regexp.MustCompile(`-.pre`)

// Categorize classifies a token. The first matching rule wins.
func Categorize(token string) Category {
	switch {
	case strings.Contains(token, "-i "):
		return CategoryInput
	case strings.Contains(token, "-ss"):
		return CategorySeek
	case strings.Contains(token, "codec"):
		return CategoryCodec
	case presetPattern.MatchString(token):
		return CategoryPreset
	case strings.Contains(token, "-filter_complex "):
		return CategoryComplexFilter
	default:
		return CategoryOther
	}
}

// Arguments converts every present option into a token. Options without a
// converter and names outside the vocabulary are skipped.
func (o Options) Arguments() []Argument {
	args := make([]Argument, 0, len(o))
	for _, opt := range AllOptions {
		value, ok := o[opt.Key]
		if !ok || !present(value) || opt.convert == nil {
			continue
		}
		token := opt.convert(o, value)
		if token == "" {
			continue
		}
		args = append(args, Argument{Name: opt.Key, Token: token, Category: Categorize(token)})
	}
	return args
}

type groups map[Category][]string

func group(args []Argument) groups {
	g := make(groups)
	for _, a := range args {
		g[a.Category] = append(g[a.Category], a.Token)
	}
	return g
}

func hasComplexFilter(args []Argument) bool {
	for _, a := range args {
		if strings.Contains(a.Token, "-filter_complex ") {
			return true
		}
	}
	return false
}

// Compile renders the full argument string: prefix options, then seek,
// inputs, codecs, presets and everything else. Codecs precede presets so
// preset files match, and the remaining options follow so they override
// preset values. With several inputs and no explicit complex filter a
// concatenation graph is appended.
//
// Prefix tokens are emitted as converted, in declaration order, without
// categorizing. Only options can derive -aspect or a concatenation graph, so
// Compile(nil, prefix) renders the prefix alone.
func Compile(options, prefix Options) string {
	args := options.Arguments()
	g := group(args)

	var params []string
	for _, a := range prefix.Arguments() {
		params = append(params, a.Token)
	}
	params = append(params, g[CategorySeek]...)
	params = append(params, g[CategoryInput]...)
	params = append(params, g[CategoryCodec]...)
	params = append(params, g[CategoryPreset]...)
	for _, a := range args {
		if a.Category == CategoryComplexFilter || a.Category == CategoryOther {
			params = append(params, a.Token)
		}
	}

	if n := len(options.InputPaths()); n > 1 && !hasComplexFilter(args) {
		params = append(params, concatToken(n, withAudio(options)))
	}

	if aspect, ok := AspectToken(options); ok {
		params = append(params, aspect)
	}
	return strings.Join(params, " ")
}

// CompileMinimal renders codecs, presets and other options only. Inputs, seek
// and complex filters are left out so a per-input pre-encode can supply its
// own.
func CompileMinimal(options Options) string {
	g := group(options.Arguments())

	var params []string
	params = append(params, g[CategoryCodec]...)
	params = append(params, g[CategoryPreset]...)
	params = append(params, g[CategoryOther]...)

	if aspect, ok := AspectToken(options); ok {
		params = append(params, aspect)
	}
	return strings.Join(params, " ")
}

// AspectToken derives "-aspect W/H" from the resolution when no explicit
// aspect option is set.
func AspectToken(options Options) (string, bool) {
	if v, ok := options[Aspect]; ok && v != nil {
		return "", false
	}
	if !present(options[Resolution]) {
		return "", false
	}
	w, h, ok := options.Dimensions()
	if !ok || h == 0 {
		return "", false
	}
	return "-aspect " + strconv.FormatFloat(float64(w)/float64(h), 'f', -1, 64), true
}

// withAudio reports whether the concat graph carries audio. Only an explicit
// false for any_streams_contain_audio drops it.
func withAudio(options Options) bool {
	v, ok := options[AnyStreamsContainAudio]
	if !ok {
		return true
	}
	b, isBool := v.(bool)
	return !isBool || b
}

// ConcatFilter builds the filter graph that resets timestamps on every video
// stream and concatenates all inputs into [v] (and [a] with audio).
func ConcatFilter(n int, audio bool) string {
	var forming, grouping strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&forming, "[%d:v]setpts=PTS-STARTPTS[v%d];", i, i)
		fmt.Fprintf(&grouping, "[v%d]", i)
		if audio {
			fmt.Fprintf(&grouping, "[%d:a]", i)
		}
	}
	if audio {
		fmt.Fprintf(&grouping, "concat=n=%d:v=1:a=1[v][a]", n)
	} else {
		fmt.Fprintf(&grouping, "concat=n=%d:v=1:a=0[v]", n)
	}
	return forming.String() + grouping.String()
}

func concatToken(n int, audio bool) string {
	token := fmt.Sprintf("-filter_complex %q -map %q", ConcatFilter(n, audio), "[v]")
	if audio {
		token += fmt.Sprintf(" -map %q", "[a]")
	}
	return token
}
