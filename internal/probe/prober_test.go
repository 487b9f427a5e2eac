package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeFFProbe writes a script that prints body for any arguments and exits
// with code.
func fakeFFProbe(t *testing.T, body string, code int) string {
	t.Helper()
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(payload, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "ffprobe")
	content := "#!/bin/sh\ncat '" + payload + "'\nexit " + string(rune('0'+code)) + "\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbeLocalFile(t *testing.T) {
	p := New(fakeFFProbe(t, sampleJSON, 0))
	path := touch(t, "movie.mov")

	m, err := p.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if !m.Valid() || m.Path() != path {
		t.Errorf("movie = %+v", m)
	}
}

func TestProbeMultiplePaths(t *testing.T) {
	p := New(fakeFFProbe(t, sampleJSON, 0))
	a, b := touch(t, "a.mov"), touch(t, "b.mov")

	m, err := p.Probe(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Paths) != 2 || m.Duration != 2*7.574233 {
		t.Errorf("Paths = %v, Duration = %v", m.Paths, m.Duration)
	}
}

func TestProbeMissingFile(t *testing.T) {
	p := New(fakeFFProbe(t, sampleJSON, 0))
	_, err := p.Probe(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Probe() error = %v, want os.ErrNotExist", err)
	}
}

func TestProbeRemoteSkipsStat(t *testing.T) {
	p := New(fakeFFProbe(t, sampleJSON, 0))
	m, err := p.Probe(context.Background(), "https://example.com/awesome.mov")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if !m.Valid() {
		t.Error("remote movie should be valid")
	}
}

func TestProbeUnreadableMedia(t *testing.T) {
	p := New(fakeFFProbe(t, "{\n\n}\n", 1))
	m, err := p.Probe(context.Background(), touch(t, "broken.mp4"))
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if m.Valid() {
		t.Error("broken media should be invalid")
	}
}

func TestProbeNoPaths(t *testing.T) {
	if _, err := New("").Probe(context.Background()); !errors.Is(err, ErrNoPaths) {
		t.Errorf("Probe() error = %v, want ErrNoPaths", err)
	}
}

func TestProbeMissingBinary(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "no-ffprobe"))
	if _, err := p.Probe(context.Background(), touch(t, "a.mp4")); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.mp4": true,
		"rtmp://host/live":          true,
		"/tmp/a.mp4":                false,
		"C:/videos/a.mp4":           false,
		"weird name://x":            false,
		"://nohost":                 false,
	}
	for path, want := range tests {
		if got := IsRemote(path); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", path, got, want)
		}
	}
}
