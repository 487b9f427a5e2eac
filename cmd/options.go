package cmd

import (
	"fmt"
	"strings"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
)

// applySets merges "key=value" pairs into opts. Keys must name encoding
// options. "true" and "false" become booleans and inputs are comma
// separated.
func applySets(opts ffmpeg.Options, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid option %q, expected key=value", pair)
		}
		name, known := ffmpeg.ParseName(key)
		if !known {
			return fmt.Errorf("unknown encoding option %q", key)
		}

		switch {
		case name == ffmpeg.Inputs:
			opts[name] = splitList(value)
		case value == "":
			delete(opts, name)
		case value == "true" || value == "false":
			opts[name] = value == "true"
		default:
			opts[name] = value
		}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// watermarkFlags configures an overlay image.
type watermarkFlags struct {
	image    string
	position string
	paddingX int
	paddingY int
}

func (w watermarkFlags) apply(opts ffmpeg.Options) error {
	if w.image == "" {
		return nil
	}
	pos := ffmpeg.WatermarkPosition(strings.ToUpper(w.position))
	switch pos {
	case ffmpeg.LeftTop, ffmpeg.RightTop, ffmpeg.LeftBottom, ffmpeg.RightBottom:
	default:
		return fmt.Errorf("invalid watermark position %q (LT, RT, LB, RB)", w.position)
	}
	opts[ffmpeg.Watermark] = w.image
	opts[ffmpeg.WatermarkFilter] = ffmpeg.WatermarkSpec{Position: pos, PaddingX: w.paddingX, PaddingY: w.paddingY}
	return nil
}
