package ffmpeg

import "testing"

func TestFixDimension(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{180, 180},
		{259.32, 260},
		{426.67, 426},
		{202.5, 202},
		{201.2, 202},
		{3, 4},
	}
	for _, tt := range tests {
		if got := FixDimension(tt.in); got != tt.want {
			t.Errorf("FixDimension(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFixDimensionAlwaysEven(t *testing.T) {
	for v := 0.0; v < 2000; v += 0.37 {
		if got := FixDimension(v); got%2 != 0 {
			t.Fatalf("FixDimension(%v) = %d, not even", v, got)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "width", "Height", " fit "} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) error: %v", s, err)
		}
	}
	if _, err := ParseMode("stretch"); err == nil {
		t.Error("ParseMode(stretch) expected error")
	}
}

func TestPreserveAspectRatio(t *testing.T) {
	const wide = 16.0 / 9.0
	const fourThree = 4.0 / 3.0

	tests := []struct {
		name    string
		mode    Mode
		aspect  float64
		w, h    int
		rotated bool
		wantW   int
		wantH   int
	}{
		{"width", ModeWidth, wide, 320, 240, false, 320, 180},
		{"height", ModeHeight, wide, 320, 240, false, 426, 240},
		{"width odd aspect", ModeWidth, 1.234, 320, 240, false, 320, 260},
		{"fit landscape source portrait target", ModeFit, wide, 360, 640, false, 360, 202},
		{"fit rotated wide target", ModeFit, fourThree, 640, 360, true, 270, 360},
		{"fit rotated near square target", ModeFit, fourThree, 480, 600, true, 450, 600},
		{"fit rotated tall target", ModeFit, fourThree, 360, 640, true, 360, 480},
		{"fit widescreen into 4:3", ModeFit, wide, 640, 480, false, 640, 360},
		{"fit widescreen into ultrawide", ModeFit, wide, 1280, 360, false, 640, 360},
		{"none", ModeNone, wide, 320, 240, false, 320, 240},
		{"unknown aspect", ModeWidth, 0, 320, 240, false, 320, 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := PreserveAspectRatio(tt.mode, tt.aspect, tt.w, tt.h, tt.rotated)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("PreserveAspectRatio() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPreserveAspectRatioFitSymmetry(t *testing.T) {
	// landscape source, portrait target: width kept, height shrinks
	w, h := PreserveAspectRatio(ModeFit, 16.0/9.0, 360, 640, false)
	if w != 360 || h >= 640 {
		t.Errorf("landscape into portrait = %dx%d", w, h)
	}

	// portrait source, landscape target: height kept, width shrinks
	w, h = PreserveAspectRatio(ModeFit, 9.0/16.0, 640, 360, false)
	if h != 360 || w >= 640 {
		t.Errorf("portrait into landscape = %dx%d", w, h)
	}
}
