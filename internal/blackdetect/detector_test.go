package blackdetect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/smazurov/ffwrap/internal/events"
)

// fakeFFProbe writes a script that prints stdout and stderr and records its
// arguments, one per line, next to itself.
func fakeFFProbe(t *testing.T, stdout, stderr string) (binary, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "stdout")
	errf := filepath.Join(dir, "stderr")
	argsFile = filepath.Join(dir, "args")
	if err := os.WriteFile(out, []byte(stdout), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(errf, []byte(stderr), 0o644); err != nil {
		t.Fatal(err)
	}
	binary = filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\n" +
		"for a in \"$@\"; do printf '%s\\n' \"$a\"; done > '" + argsFile + "'\n" +
		"cat '" + out + "'\n" +
		"cat '" + errf + "' >&2\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return binary, argsFile
}

func TestDetectorRun(t *testing.T) {
	stdout := "TAG:lavfi.black_start=0\nTAG:lavfi.black_end=1.5\nTAG:lavfi.black_end=1.5\nTAG:lavfi.black_start=9\n"
	bin, argsFile := fakeFFProbe(t, stdout, "")

	d := New("/media/clip one.mp4", Config{Binary: bin, Bus: events.New()})
	got, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !slices.Equal(got, []Interval{{0, 1.5}}) {
		t.Errorf("Run() = %v", got)
	}
	if !d.Valid() {
		t.Error("detector should be valid")
	}
	if d.Output() != stdout {
		t.Errorf("Output() = %q", d.Output())
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	args := strings.Split(strings.TrimSpace(string(data)), "\n")
	if !slices.Contains(args, "movie=/media/clip one.mp4,blackdetect[out0]") {
		t.Errorf("args = %q", args)
	}
}

func TestDetectorStderrInvalidates(t *testing.T) {
	bin, _ := fakeFFProbe(t, "TAG:lavfi.black_start=0\nTAG:lavfi.black_end=1\n", "movie: No such file\n")

	d := New("missing.mp4", Config{Binary: bin})
	got, err := d.Run(context.Background())

	var de *DetectError
	if !errors.As(err, &de) {
		t.Fatalf("Run() error = %v, want *DetectError", err)
	}
	if !errors.Is(err, ErrDetect) {
		t.Error("DetectError should wrap ErrDetect")
	}
	if !strings.Contains(de.Stderr, "No such file") || !strings.Contains(de.Output, "black_end=1") {
		t.Errorf("DetectError = %+v", de)
	}
	if d.Valid() {
		t.Error("detector should be invalid")
	}
	if len(got) != 1 {
		t.Errorf("intervals = %v, want the parsed interval", got)
	}
}

func TestDetectorEmptyOutput(t *testing.T) {
	bin, _ := fakeFFProbe(t, "", "")

	d := New("clean.mp4", Config{Binary: bin})
	got, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(got) != 0 || !d.Valid() {
		t.Errorf("Run() = %v, valid = %v", got, d.Valid())
	}
}

func TestDetectorMissingBinary(t *testing.T) {
	d := New("a.mp4", Config{Binary: filepath.Join(t.TempDir(), "nope")})
	if _, err := d.Run(context.Background()); err == nil {
		t.Error("expected error for missing binary")
	}
	if d.Valid() {
		t.Error("detector should be invalid")
	}
}

func TestDetectorArgs(t *testing.T) {
	d := New("a.mp4", Config{MinDuration: 2, PixelThreshold: 0.05})
	args := d.Args()
	if !slices.Contains(args, "movie=a.mp4,blackdetect=d=2:pix_th=0.05[out0]") {
		t.Errorf("Args() = %q", args)
	}
}
