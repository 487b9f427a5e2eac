package ffmpeg

import (
	"fmt"
	"strings"
)

// WatermarkPosition anchors a watermark to a corner of the frame.
type WatermarkPosition string

// Watermark positions.
const (
	LeftTop     WatermarkPosition = "LT"
	RightTop    WatermarkPosition = "RT"
	LeftBottom  WatermarkPosition = "LB"
	RightBottom WatermarkPosition = "RB"
)

// WatermarkSpec is the value of the watermark_filter option.
type WatermarkSpec struct {
	Position WatermarkPosition `toml:"position"`
	PaddingX int               `toml:"padding_x"`
	PaddingY int               `toml:"padding_y"`
}

func convertWatermarkFilter(opts Options, value any) string {
	var spec WatermarkSpec
	switch v := value.(type) {
	case WatermarkSpec:
		spec = v
	case *WatermarkSpec:
		if v == nil {
			return ""
		}
		spec = *v
	case map[string]any:
		spec = watermarkFromMap(v)
	default:
		return ""
	}

	var x, y string
	switch WatermarkPosition(strings.ToUpper(string(spec.Position))) {
	case LeftTop:
		x = fmt.Sprintf("%d", spec.PaddingX)
		y = fmt.Sprintf("%d", spec.PaddingY)
	case RightTop:
		x = fmt.Sprintf("main_w-overlay_w-%d", spec.PaddingX)
		y = fmt.Sprintf("%d", spec.PaddingY)
	case LeftBottom:
		x = fmt.Sprintf("%d", spec.PaddingX)
		y = fmt.Sprintf("main_h-overlay_h-%d", spec.PaddingY)
	case RightBottom:
		x = fmt.Sprintf("main_w-overlay_w-%d", spec.PaddingX)
		y = fmt.Sprintf("main_h-overlay_h-%d", spec.PaddingY)
	default:
		return ""
	}

	return fmt.Sprintf("-filter_complex 'scale=%s,overlay=x=%s:y=%s'", formatValue(opts[Resolution]), x, y)
}

func watermarkFromMap(m map[string]any) WatermarkSpec {
	spec := WatermarkSpec{Position: WatermarkPosition(formatValue(m["position"]))}
	spec.PaddingX = toInt(m["padding_x"])
	spec.PaddingY = toInt(m["padding_y"])
	return spec
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
