package probe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseJSON decodes ffprobe's JSON output for path into a Movie.
func ParseJSON(path string, data []byte) (*Movie, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}
	return FromResult(path, &res), nil
}

// FromResult builds a Movie from a decoded ffprobe document.
func FromResult(path string, res *Result) *Movie {
	m := &Movie{
		Paths:    []string{path},
		Duration: parseFloat(res.Format.Duration),
		Size:     parseInt(res.Format.Size),
		Bitrate:  parseInt(res.Format.BitRate),
		Format:   res.Format.FormatName,
	}

	if res.Error != nil {
		m.Error = res.Error.String
		return m
	}

	for i := range res.Streams {
		s := &res.Streams[i]
		switch strings.ToLower(s.CodecType) {
		case "video":
			if m.VideoCodec != "" {
				continue
			}
			m.VideoCodec = s.CodecName
			m.Width = s.Width
			m.Height = s.Height
			m.VideoBitrate = parseInt(s.BitRate)
			m.DAR = s.DisplayAspectRatio
			m.SAR = s.SampleAspectRatio
			m.Rotation = rotation(s)
			if fr, ok := parseRatio(s.AvgFrameRate, "/"); ok {
				m.FrameRate = fr
			} else if fr, ok := parseRatio(s.RFrameRate, "/"); ok {
				m.FrameRate = fr
			}
			if m.Duration == 0 {
				m.Duration = parseFloat(s.Duration)
			}
		case "audio":
			as := AudioStream{
				Index:         s.Index,
				Codec:         s.CodecName,
				Channels:      s.Channels,
				ChannelLayout: s.ChannelLayout,
				SampleRate:    int(parseInt(s.SampleRate)),
				Bitrate:       parseInt(s.BitRate),
			}
			m.AudioStreams = append(m.AudioStreams, as)
			if len(m.AudioStreams) == 1 {
				m.AudioCodec = as.Codec
				m.AudioChannels = as.Channels
				m.AudioSampleRate = as.SampleRate
				m.AudioBitrate = as.Bitrate
			}
		}
	}

	return m
}

// rotation reads the rotate tag, or the display matrix side data, and
// normalizes it to [0, 360).
func rotation(s *Stream) int {
	deg := 0.0
	if tag, ok := s.Tags["rotate"]; ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(tag), 64); err == nil {
			deg = v
		}
	} else {
		for _, sd := range s.SideDataList {
			if sd.Rotation != 0 {
				deg = -sd.Rotation
				break
			}
		}
	}
	r := int(math.Round(deg)) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// Combine merges per-path movies: stream attributes from the first, summed
// duration and size, every path.
func Combine(movies []*Movie) *Movie {
	if len(movies) == 0 {
		return &Movie{}
	}
	if len(movies) == 1 {
		return movies[0]
	}

	combined := *movies[0]
	combined.Paths = nil
	combined.Inputs = movies
	combined.Duration = 0
	combined.Size = 0
	for _, m := range movies {
		combined.Paths = append(combined.Paths, m.Paths...)
		combined.Duration += m.Duration
		combined.Size += m.Size
		if m.Error != "" && combined.Error == "" {
			combined.Error = m.Path() + ": " + m.Error
		}
	}
	return &combined
}
