package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/ffwrap/internal/ffmpeg"
)

type testOptions struct {
	Config string

	FFmpegBinary string        `toml:"ffmpeg.binary" env:"FFMPEG"`
	Timeout      time.Duration `toml:"transcode.timeout" env:"TIMEOUT"`
	Validate     bool          `toml:"transcode.validate" env:"VALIDATE"`
	Threads      int           `toml:"transcode.threads" env:"THREADS"`
	BlackPixTh   float64       `toml:"blackdetect.pixel_threshold" env:"BLACK_PIX_TH"`
	Inputs       []string      `toml:"transcode.inputs" env:"INPUTS"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffwrap.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleConfig = `
[ffmpeg]
binary = "/opt/ffmpeg/bin/ffmpeg"

[transcode]
timeout = "45s"
validate = true
threads = 4
inputs = ["a.mp4", "b.mp4"]

[blackdetect]
pixel_threshold = 0.1
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, sampleConfig)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	want := &testOptions{
		Config:       opts.Config,
		FFmpegBinary: "/opt/ffmpeg/bin/ffmpeg",
		Timeout:      45 * time.Second,
		Validate:     true,
		Threads:      4,
		BlackPixTh:   0.1,
		Inputs:       []string{"a.mp4", "b.mp4"},
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("LoadConfig() = %+v, want %+v", opts, want)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FFWRAP_FFMPEG", "/usr/local/bin/ffmpeg")
	t.Setenv("FFWRAP_TIMEOUT", "10")
	t.Setenv("FFWRAP_VALIDATE", "true")
	t.Setenv("FFWRAP_THREADS", "8")
	t.Setenv("FFWRAP_BLACK_PIX_TH", "0.05")
	t.Setenv("FFWRAP_INPUTS", " x.mp4 , y.mp4 ")

	opts := &testOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if opts.FFmpegBinary != "/usr/local/bin/ffmpeg" || opts.Timeout != 10*time.Second || !opts.Validate ||
		opts.Threads != 8 || opts.BlackPixTh != 0.05 || !slices.Equal(opts.Inputs, []string{"x.mp4", "y.mp4"}) {
		t.Errorf("LoadConfig() = %+v", opts)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Setenv("FFWRAP_FFMPEG", "env-ffmpeg")
	t.Setenv("FFWRAP_THREADS", "2")

	opts := &testOptions{Config: writeConfig(t, sampleConfig)}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.FFmpegBinary, "ffmpeg-binary", "ffmpeg", "")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "")
	if err := cmd.Flags().Parse([]string{"--ffmpeg-binary", "cli-ffmpeg"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if opts.FFmpegBinary != "cli-ffmpeg" {
		t.Errorf("FFmpegBinary = %q, CLI flag should win", opts.FFmpegBinary)
	}
	if opts.Threads != 2 {
		t.Errorf("Threads = %d, env should beat TOML", opts.Threads)
	}
	if opts.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, TOML should beat an unchanged flag default", opts.Timeout)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("invalid TOML", func(t *testing.T) {
		opts := &testOptions{Config: writeConfig(t, "[transcode\nbroken")}
		if err := LoadConfig(opts, nil); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		opts := &testOptions{Config: writeConfig(t, "[transcode]\nthreads = \"many\"\n")}
		if err := LoadConfig(opts, nil); err == nil {
			t.Error("expected type error")
		}
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("FFWRAP_THREADS", "many")
		if err := LoadConfig(&testOptions{}, nil); err == nil {
			t.Error("expected env parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml")}
		if err := LoadConfig(opts, nil); err != nil {
			t.Errorf("missing file should be ignored: %v", err)
		}
	})
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Config":          "config",
		"LogLevel":        "log-level",
		"FFmpegBinary":    "ffmpeg-binary",
		"MetricsTextfile": "metrics-textfile",
		"HTTPPort":        "http-port",
		"LogJSON":         "log-json",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"b":    map[string]any{"c": "deep"},
			"leaf": "shallow",
		},
		"root": "top",
	}
	tests := []struct {
		path string
		want any
	}{
		{"root", "top"},
		{"a.leaf", "shallow"},
		{"a.b.c", "deep"},
		{"missing", nil},
		{"root.x", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"30":    30 * time.Second,
		"1.5":   1500 * time.Millisecond,
		"2m":    2 * time.Minute,
		"250ms": 250 * time.Millisecond,
	}
	for in, want := range tests {
		got, err := parseDuration(in)
		if err != nil || got != want {
			t.Errorf("parseDuration(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseDuration("soon"); err == nil {
		t.Error("parseDuration(soon) should fail")
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"
format = "json"
journal = true
transcoder = "warn"

[logging.modules]
ffmpeg = "error"
`)
	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" || !cfg.Journal {
		t.Errorf("LoadLoggingConfig() = %+v", cfg)
	}
	want := map[string]string{"transcoder": "warn", "ffmpeg": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	defaults := LoadLoggingConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if defaults.Level != "info" || defaults.Format != "text" || defaults.Journal {
		t.Errorf("defaults = %+v", defaults)
	}
}

func TestLoadPresets(t *testing.T) {
	path := writeConfig(t, `
[presets.web]
video_codec = "libx264"
audio_codec = "aac"
video_bitrate = 1500
resolution = "1280x720"
bogus = 1

[presets.web.watermark_filter]
position = "RB"
padding_x = 10
padding_y = 20

[presets.thumb]
screenshot = true
vframes = 3
`)
	presets, unknown, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets() error: %v", err)
	}
	if !slices.Equal(presets.Names(), []string{"thumb", "web"}) {
		t.Errorf("Names() = %v", presets.Names())
	}
	if !slices.Equal(unknown, []string{"web.bogus"}) {
		t.Errorf("unknown = %v", unknown)
	}

	web, err := presets.Preset("web")
	if err != nil {
		t.Fatal(err)
	}
	if web[ffmpeg.VideoCodec] != "libx264" {
		t.Errorf("video_codec = %v", web[ffmpeg.VideoCodec])
	}
	wm, ok := web[ffmpeg.WatermarkFilter].(ffmpeg.WatermarkSpec)
	if !ok || wm.Position != ffmpeg.RightBottom || wm.PaddingX != 10 || wm.PaddingY != 20 {
		t.Errorf("watermark_filter = %#v", web[ffmpeg.WatermarkFilter])
	}

	web[ffmpeg.VideoCodec] = "changed"
	again, _ := presets.Preset("web")
	if again[ffmpeg.VideoCodec] != "libx264" {
		t.Error("Preset() should return a copy")
	}

	if _, err := presets.Preset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Preset(nope) error = %v", err)
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	presets, unknown, err := LoadPresets(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil || len(presets) != 0 || len(unknown) != 0 {
		t.Errorf("LoadPresets() = %v, %v, %v", presets, unknown, err)
	}
}
