package version

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseToolVersion(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
		err  error
	}{
		{"ffmpeg", "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc 13\n", "6.1.1-3ubuntu5", nil},
		{"ffprobe", "ffprobe version n7.0 Copyright (c) 2007-2024\n", "n7.0", nil},
		{"banner first", "\nffmpeg version 5.1.4\n", "5.1.4", nil},
		{"no version", "usage: ffmpeg [options]\n", "", ErrNoVersion},
		{"trailing keyword", "ffmpeg version\n", "", ErrNoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToolVersion([]byte(tt.out))
			if got != tt.want || !errors.Is(err, tt.err) {
				t.Errorf("ParseToolVersion() = %q, %v; want %q, %v", got, err, tt.want, tt.err)
			}
		})
	}
}

func TestTool(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho 'ffmpeg version 7.1 Copyright (c) 2000-2024'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := Tool(context.Background(), bin)
	if err != nil || got != "7.1" {
		t.Errorf("Tool() = %q, %v", got, err)
	}

	if _, err := Tool(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing binary")
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || !strings.HasPrefix(info.GoVersion, "go") || !strings.Contains(info.Platform, "/") {
		t.Errorf("Get() = %+v", info)
	}
}
