package ffmpeg

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Name identifies a supported encoding option.
type Name string

// Encoding option names. Declaration order in AllOptions is the order tokens
// appear within a category of the compiled command.
const (
	Inputs                 Name = "inputs"
	Input                  Name = "input"
	Watermark              Name = "watermark"
	SeekTime               Name = "seek_time"
	VideoCodec             Name = "video_codec"
	AudioCodec             Name = "audio_codec"
	VideoPreset            Name = "video_preset"
	AudioPreset            Name = "audio_preset"
	FilePreset             Name = "file_preset"
	FrameRate              Name = "frame_rate"
	Resolution             Name = "resolution"
	Aspect                 Name = "aspect"
	VideoBitrate           Name = "video_bitrate"
	AudioBitrate           Name = "audio_bitrate"
	AudioSampleRate        Name = "audio_sample_rate"
	AudioChannels          Name = "audio_channels"
	VideoMaxBitrate        Name = "video_max_bitrate"
	VideoMinBitrate        Name = "video_min_bitrate"
	BufferSize             Name = "buffer_size"
	VideoBitrateTolerance  Name = "video_bitrate_tolerance"
	Threads                Name = "threads"
	Duration               Name = "duration"
	KeyframeInterval       Name = "keyframe_interval"
	X264VProfile           Name = "x264_vprofile"
	X264Preset             Name = "x264_preset"
	Screenshot             Name = "screenshot"
	VFrames                Name = "vframes"
	WatermarkFilter        Name = "watermark_filter"
	Custom                 Name = "custom"
	AnyStreamsContainAudio Name = "any_streams_contain_audio"
)

// converter renders a single option value into a command-line token. It may
// read other options (screenshot reads vframes, the watermark filter reads
// resolution). An empty result means the option contributes nothing.
type converter func(opts Options, value any) string

// Option describes a supported encoding option.
type Option struct {
	Key         Name   `json:"key"`
	Flag        string `json:"flag,omitempty"`
	Description string `json:"description"`
	convert     converter
}

// AllOptions is the closed vocabulary of encoding options. Options without a
// converter are data consumed by other converters or by the transcoder.
var AllOptions = []Option{
	{Key: Inputs, Flag: "-i", Description: "Input paths, one -i per path", convert: convertInputs},
	{Key: Input, Flag: "-i", Description: "Single input path (legacy form of inputs)", convert: convertInput},
	{Key: Watermark, Flag: "-i", Description: "Watermark image input", convert: flag("-i")},
	{Key: SeekTime, Flag: "-ss", Description: "Seek position", convert: flag("-ss")},
	{Key: VideoCodec, Flag: "-vcodec", Description: "Video codec", convert: flag("-vcodec")},
	{Key: AudioCodec, Flag: "-acodec", Description: "Audio codec", convert: flag("-acodec")},
	{Key: VideoPreset, Flag: "-vpre", Description: "Video preset file", convert: flag("-vpre")},
	{Key: AudioPreset, Flag: "-apre", Description: "Audio preset file", convert: flag("-apre")},
	{Key: FilePreset, Flag: "-fpre", Description: "Preset file", convert: flag("-fpre")},
	{Key: FrameRate, Flag: "-r", Description: "Output frame rate", convert: flag("-r")},
	{Key: Resolution, Flag: "-s", Description: "Output resolution, WIDTHxHEIGHT", convert: flag("-s")},
	{Key: Aspect, Flag: "-aspect", Description: "Display aspect ratio", convert: flag("-aspect")},
	{Key: VideoBitrate, Flag: "-b:v", Description: "Video bitrate in kbit/s", convert: kflag("-b:v")},
	{Key: AudioBitrate, Flag: "-b:a", Description: "Audio bitrate in kbit/s", convert: kflag("-b:a")},
	{Key: AudioSampleRate, Flag: "-ar", Description: "Audio sample rate", convert: flag("-ar")},
	{Key: AudioChannels, Flag: "-ac", Description: "Audio channel count", convert: flag("-ac")},
	{Key: VideoMaxBitrate, Flag: "-maxrate", Description: "Maximum video bitrate", convert: kflag("-maxrate")},
	{Key: VideoMinBitrate, Flag: "-minrate", Description: "Minimum video bitrate", convert: kflag("-minrate")},
	{Key: BufferSize, Flag: "-bufsize", Description: "Rate control buffer size", convert: kflag("-bufsize")},
	{Key: VideoBitrateTolerance, Flag: "-bt", Description: "Video bitrate tolerance", convert: kflag("-bt")},
	{Key: Threads, Flag: "-threads", Description: "Encoder thread count", convert: flag("-threads")},
	{Key: Duration, Flag: "-t", Description: "Output duration", convert: flag("-t")},
	{Key: KeyframeInterval, Flag: "-g", Description: "GOP size", convert: flag("-g")},
	{Key: X264VProfile, Flag: "-vprofile", Description: "x264 profile", convert: flag("-vprofile")},
	{Key: X264Preset, Flag: "-preset", Description: "x264 preset", convert: flag("-preset")},
	{Key: Screenshot, Flag: "-vframes", Description: "Extract still frames as images", convert: convertScreenshot},
	{Key: VFrames, Description: "Frame count used by screenshot"},
	{Key: WatermarkFilter, Flag: "-filter_complex", Description: "Watermark placement", convert: convertWatermarkFilter},
	{Key: Custom, Description: "Raw arguments passed through verbatim", convert: convertCustom},
	{Key: AnyStreamsContainAudio, Description: "Whether any input carries audio"},
}

var optionIndex = func() map[Name]int {
	idx := make(map[Name]int, len(AllOptions))
	for i, opt := range AllOptions {
		idx[opt.Key] = i
	}
	return idx
}()

// GetOptionByKey returns an option by its key.
func GetOptionByKey(key Name) *Option {
	if i, ok := optionIndex[key]; ok {
		return &AllOptions[i]
	}
	return nil
}

// ParseName resolves a string key to a supported option name.
func ParseName(s string) (Name, bool) {
	name := Name(strings.ToLower(strings.TrimSpace(s)))
	_, ok := optionIndex[name]
	return name, ok
}

// Options maps option names to values. Values are strings, numbers, booleans,
// []string (inputs) or WatermarkSpec (watermark_filter).
type Options map[Name]any

// Clone returns a shallow copy of the options.
func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}
	return maps.Clone(o)
}

// Dimensions parses the resolution option. ok is false when resolution is
// unset or not of the form WIDTHxHEIGHT.
func (o Options) Dimensions() (width, height int, ok bool) {
	res, set := o[Resolution]
	if !set || res == nil {
		return 0, 0, false
	}
	w, h, found := strings.Cut(formatValue(res), "x")
	if !found {
		return 0, 0, false
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return width, height, true
}

// InputPaths returns the paths named by the inputs (or legacy input) option.
func (o Options) InputPaths() []string {
	if v, ok := o[Inputs]; ok && present(v) {
		return toStrings(v)
	}
	if v, ok := o[Input]; ok && present(v) {
		return toStrings(v)
	}
	return nil
}

// OptionsFromMap converts string-keyed values, such as a TOML preset table,
// into Options. Keys outside the vocabulary are returned separately so the
// caller can report them; they never fail the conversion.
func OptionsFromMap(values map[string]any) (Options, []string) {
	opts := make(Options, len(values))
	var unknown []string
	for key, value := range values {
		name, ok := ParseName(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		switch name {
		case WatermarkFilter:
			if table, isMap := value.(map[string]any); isMap {
				value = watermarkFromMap(table)
			}
		case Inputs:
			value = toStrings(value)
		}
		opts[name] = value
	}
	return opts, unknown
}

// InputArgs renders one escaped "-i <path>" per path.
func InputArgs(paths []string) string {
	return convertInputs(nil, paths)
}

func convertInputs(_ Options, value any) string {
	paths := toStrings(value)
	if len(paths) == 0 {
		return ""
	}
	escaped := make([]string, len(paths))
	for i, p := range paths {
		escaped[i] = Escape(p)
	}
	return "-i " + strings.Join(escaped, " -i ")
}

func convertInput(opts Options, value any) string {
	return convertInputs(opts, []string{formatValue(value)})
}

func convertScreenshot(opts Options, _ any) string {
	vframes := "1"
	if v, ok := opts[VFrames]; ok && present(v) {
		vframes = formatValue(v)
	}
	return "-vframes " + vframes + " -f image2"
}

func convertCustom(_ Options, value any) string {
	return formatValue(value)
}

// flag returns a converter rendering "<flag> <value>".
func flag(name string) converter {
	return func(_ Options, value any) string {
		return name + " " + formatValue(value)
	}
}

// kflag is flag with the value normalized to carry a k suffix.
func kflag(name string) converter {
	return func(_ Options, value any) string {
		return name + " " + KFormat(value)
	}
}

// KFormat renders a bitrate-like value with a trailing "k" unless the value
// already contains one.
func KFormat(value any) string {
	s := formatValue(value)
	if strings.Contains(s, "k") {
		return s
	}
	return s + "k"
}

// present reports whether a value takes part in compilation. Only nil and
// false are skipped.
func present(value any) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok && !b {
		return false
	}
	return true
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, " ")
	default:
		return fmt.Sprint(v)
	}
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, formatValue(item))
		}
		return out
	case nil:
		return nil
	default:
		return []string{formatValue(v)}
	}
}
