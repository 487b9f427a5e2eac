package ffmpeg

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects which target dimension survives aspect ratio preservation.
type Mode string

// Preservation modes. ModeNone leaves the requested resolution untouched.
const (
	ModeNone   Mode = ""
	ModeWidth  Mode = "width"
	ModeHeight Mode = "height"
	ModeFit    Mode = "fit"
)

// ParseMode parses a preservation mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeWidth, ModeHeight, ModeFit:
		return m, nil
	default:
		return ModeNone, fmt.Errorf("unknown aspect ratio mode %q (want width, height or fit)", s)
	}
}

// FixDimension rounds a computed dimension to an even integer: the ceiling
// when it is even, the floor otherwise, bumped by one if still odd.
func FixDimension(v float64) int {
	n := int(math.Ceil(v))
	if n%2 != 0 {
		n = int(math.Floor(v))
	}
	if n%2 != 0 {
		n++
	}
	return n
}

// PreserveAspectRatio recomputes one side of width x height so the result
// keeps sourceAspect. In fit mode the source aspect is inverted for sources
// rotated by an odd multiple of 90 degrees, and the side that keeps the
// result inside the target box is preserved.
func PreserveAspectRatio(mode Mode, sourceAspect float64, width, height int, rotatedOdd90 bool) (int, int) {
	if sourceAspect <= 0 || mode == ModeNone {
		return width, height
	}

	switch mode {
	case ModeWidth:
		return width, FixDimension(float64(width) / sourceAspect)
	case ModeHeight:
		return FixDimension(float64(height) * sourceAspect), height
	case ModeFit:
		if height == 0 {
			return width, height
		}
		aspect := sourceAspect
		if rotatedOdd90 {
			aspect = 1 / aspect
		}
		if float64(width)/float64(height) > aspect {
			return FixDimension(float64(height) * aspect), height
		}
		return width, FixDimension(float64(width) / aspect)
	}
	return width, height
}
