package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Escape quotes s for the command parser so it survives as one argument.
// Characters outside a conservative safe set are backslash-escaped.
func Escape(s string) string {
	if s == "" {
		return "''"
	}
	var b strings.Builder
	for _, r := range s {
		if !isSafe(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_-.,:+/@=", r)
}

// BuildTranscodeCommand builds the main transcode invocation.
func BuildTranscodeCommand(binary, options, output string) string {
	var cmd strings.Builder
	cmd.WriteString(binary)
	cmd.WriteString(" -y")
	if options != "" {
		cmd.WriteString(" " + options)
	}
	cmd.WriteString(" " + Escape(output))
	return cmd.String()
}

// BuildPreEncodeCommand builds the normalization pass for one input of a
// multi-input transcode: fixed frame rate, scaled and padded onto a shared
// canvas, with an audio track when any input of the batch has one.
func BuildPreEncodeCommand(p *PreEncodeParams) string {
	var cmd strings.Builder

	cmd.WriteString(p.Binary)
	cmd.WriteString(" -y -i " + Escape(p.Input))
	cmd.WriteString(" -movflags faststart")
	if p.Options != "" {
		cmd.WriteString(" " + p.Options)
	}
	cmd.WriteString(" -r " + strconv.FormatFloat(p.FrameRate, 'f', -1, 64))

	scale := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1[Scaled]",
		p.Width, p.Height, p.Width, p.Height)
	cmd.WriteString(" -filter_complex \"" + scale + "\"")
	cmd.WriteString(" -map \"[Scaled]\"")

	if audio := AudioMapping(p.InputHasAudio, p.AnyInputAudio); audio != "" {
		cmd.WriteString(" " + audio)
	}

	cmd.WriteString(" " + Escape(p.Output))
	return cmd.String()
}

// AudioMapping maps the input's own audio, or a silent source when only
// other inputs carry audio, so every interim file has the same streams.
func AudioMapping(inputHasAudio, anyInputAudio bool) string {
	switch {
	case inputHasAudio:
		return "-map \"0:a\""
	case anyInputAudio:
		return "-filter_complex \"aevalsrc=0[a]\" -shortest -map \"[a]\""
	default:
		return ""
	}
}

// BuildBlackDetectArgs returns ffprobe arguments that run the blackdetect
// filter over the input and print only the black_start/black_end tags.
func BuildBlackDetectArgs(p *BlackDetectParams) []string {
	filter := "blackdetect"
	var params []string
	if p.MinDuration > 0 {
		params = append(params, "d="+strconv.FormatFloat(p.MinDuration, 'f', -1, 64))
	}
	if p.PixelThreshold > 0 {
		params = append(params, "pix_th="+strconv.FormatFloat(p.PixelThreshold, 'f', -1, 64))
	}
	if len(params) > 0 {
		filter += "=" + strings.Join(params, ":")
	}

	return []string{
		"-f", "lavfi",
		"-i", "movie=" + escapeFilterPath(p.Input) + "," + filter + "[out0]",
		"-show_entries", "tags=lavfi.black_start,lavfi.black_end",
		"-of", "default=nw=1",
		"-v", "quiet",
	}
}

// BuildProbeArgs returns ffprobe arguments that print format and stream
// information as JSON.
func BuildProbeArgs(input string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	}
}

// escapeFilterPath escapes a path for use inside a filter graph option.
func escapeFilterPath(path string) string {
	var b strings.Builder
	for _, r := range path {
		if strings.ContainsRune(`\':,;[]`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
