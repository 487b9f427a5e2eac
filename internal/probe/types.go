package probe

import (
	"math"
	"strconv"
	"strings"
)

// Result is the decoded ffprobe JSON document.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	Error   *struct {
		Code   int    `json:"code"`
		String string `json:"string"`
	} `json:"error,omitempty"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index              int               `json:"index"`
	CodecName          string            `json:"codec_name"`
	CodecType          string            `json:"codec_type"`
	Width              int               `json:"width"`
	Height             int               `json:"height"`
	SampleAspectRatio  string            `json:"sample_aspect_ratio"`
	DisplayAspectRatio string            `json:"display_aspect_ratio"`
	RFrameRate         string            `json:"r_frame_rate"`
	AvgFrameRate       string            `json:"avg_frame_rate"`
	BitRate            string            `json:"bit_rate"`
	SampleRate         string            `json:"sample_rate"`
	Channels           int               `json:"channels"`
	ChannelLayout      string            `json:"channel_layout"`
	Duration           string            `json:"duration"`
	Tags               map[string]string `json:"tags"`
	SideDataList       []SideData        `json:"side_data_list"`
}

// SideData carries per-stream side data; only display matrix rotation is read.
type SideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// AudioStream summarizes one audio stream.
type AudioStream struct {
	Index         int    `json:"index"`
	Codec         string `json:"codec"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	SampleRate    int    `json:"sample_rate"`
	Bitrate       int64  `json:"bitrate"`
}

// Movie is the media description the transcoder works from. With several
// paths the stream attributes come from the first one and Duration is the
// sum over all of them.
type Movie struct {
	Paths []string `json:"paths"`

	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	Bitrate  int64   `json:"bitrate"`
	Format   string  `json:"format"`

	VideoCodec   string  `json:"video_codec,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	VideoBitrate int64   `json:"video_bitrate,omitempty"`
	Rotation     int     `json:"rotation"`
	DAR          string  `json:"dar,omitempty"`
	SAR          string  `json:"sar,omitempty"`

	AudioCodec      string        `json:"audio_codec,omitempty"`
	AudioChannels   int           `json:"audio_channels,omitempty"`
	AudioSampleRate int           `json:"audio_sample_rate,omitempty"`
	AudioBitrate    int64         `json:"audio_bitrate,omitempty"`
	AudioStreams    []AudioStream `json:"audio_streams,omitempty"`

	// Inputs holds the per-path descriptions of a multi-path movie.
	Inputs []*Movie `json:"-"`

	// Error is set when ffprobe could not read the media.
	Error string `json:"error,omitempty"`
}

// Path returns the first path.
func (m *Movie) Path() string {
	if len(m.Paths) == 0 {
		return ""
	}
	return m.Paths[0]
}

// Valid reports whether ffprobe read the media and found at least one
// audio or video stream.
func (m *Movie) Valid() bool {
	return m.Error == "" && (m.VideoCodec != "" || len(m.AudioStreams) > 0)
}

// AnyStreamsContainAudio reports whether any input carries audio.
func (m *Movie) AnyStreamsContainAudio() bool {
	if len(m.AudioStreams) > 0 {
		return true
	}
	for _, in := range m.Inputs {
		if len(in.AudioStreams) > 0 {
			return true
		}
	}
	return false
}

// Resolution renders the frame size as WIDTHxHEIGHT, or "" when unknown.
func (m *Movie) Resolution() string {
	if m.Width == 0 || m.Height == 0 {
		return ""
	}
	return strconv.Itoa(m.Width) + "x" + strconv.Itoa(m.Height)
}

// RotatedOdd90 reports a rotation by an odd multiple of 90 degrees, which
// swaps the displayed width and height.
func (m *Movie) RotatedOdd90() bool {
	return (m.Rotation/90)%2 != 0
}

// Portrait reports whether the displayed frame is taller than wide.
func (m *Movie) Portrait() bool {
	w, h := m.Width, m.Height
	if m.RotatedOdd90() {
		w, h = h, w
	}
	return h > w
}

// Landscape reports whether the displayed frame is wider than tall.
func (m *Movie) Landscape() bool {
	w, h := m.Width, m.Height
	if m.RotatedOdd90() {
		w, h = h, w
	}
	return w > h
}

// CalculatedAspectRatio returns the display aspect ratio, falling back to
// width/height when the DAR is missing or degenerate. ok is false when
// neither is usable.
func (m *Movie) CalculatedAspectRatio() (float64, bool) {
	if aspect, ok := parseRatio(m.DAR, ":"); ok {
		return aspect, true
	}
	if m.Width > 0 && m.Height > 0 {
		return float64(m.Width) / float64(m.Height), true
	}
	return 0, false
}

// CalculatedPixelAspectRatio returns the sample aspect ratio, 1 when it is
// missing or degenerate.
func (m *Movie) CalculatedPixelAspectRatio() float64 {
	if sar, ok := parseRatio(m.SAR, ":"); ok {
		return sar
	}
	return 1
}

// parseRatio parses "a<sep>b". ok is false when either side is zero or not
// a number.
func parseRatio(s, sep string) (float64, bool) {
	num, den, found := strings.Cut(strings.TrimSpace(s), sep)
	if !found {
		return 0, false
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || n == 0 || d == 0 {
		return 0, false
	}
	r := n / d
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || f < 0 {
		return 0
	}
	return f
}

func parseInt(value string) int64 {
	return int64(parseFloat(value))
}
