package ffmpeg

// PreEncodeParams describes one per-input normalization pass run before
// several inputs are concatenated.
type PreEncodeParams struct {
	// Binary is the ffmpeg executable.
	Binary string

	Input  string // source path
	Output string // interim path

	// Options is the minimal compiled option string or a raw option string.
	Options string

	FrameRate float64
	Width     int // canvas width
	Height    int // canvas height

	InputHasAudio bool // input carries its own audio stream
	AnyInputAudio bool // some input of the batch carries audio
}

// BlackDetectParams configures a black frame scan.
type BlackDetectParams struct {
	Binary string // ffprobe executable
	Input  string

	// MinDuration is the blackdetect d= parameter in seconds. Zero keeps
	// ffmpeg's default.
	MinDuration float64
	// PixelThreshold is the blackdetect pix_th= parameter. Zero keeps
	// ffmpeg's default.
	PixelThreshold float64
}
