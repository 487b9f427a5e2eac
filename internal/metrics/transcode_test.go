package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTranscodeMetricsCache(t *testing.T) {
	output := "/tmp/test-out-1.mp4"

	DeleteTranscodeMetrics(output)

	if m := GetTranscodeMetrics(output); m != nil {
		t.Error("expected nil for unknown output")
	}

	SetTranscodeProgress(output, 0.25)
	SetTranscodeFPS(output, 30.0)
	SetTranscodeSpeed(output, 1.5)

	m := GetTranscodeMetrics(output)
	if m == nil {
		t.Fatal("expected non-nil metrics")
	}
	if m.Progress != 0.25 || m.FPS != 30.0 || m.Speed != 1.5 {
		t.Errorf("metrics = %+v", m)
	}

	m.FPS = 999
	if m2 := GetTranscodeMetrics(output); m2.FPS != 30.0 {
		t.Errorf("cache was modified, FPS = %v, want 30.0", m2.FPS)
	}

	if got := testutil.ToFloat64(transcodeProgress.WithLabelValues(output)); got != 0.25 {
		t.Errorf("progress gauge = %v, want 0.25", got)
	}

	DeleteTranscodeMetrics(output)
	if deleted := GetTranscodeMetrics(output); deleted != nil {
		t.Error("expected nil after delete")
	}
}

func TestGetAllTranscodeMetrics(t *testing.T) {
	DeleteTranscodeMetrics("a.mp4")
	DeleteTranscodeMetrics("b.mp4")

	SetTranscodeProgress("a.mp4", 0.5)
	SetTranscodeProgress("b.mp4", 1.0)
	defer DeleteTranscodeMetrics("a.mp4")
	defer DeleteTranscodeMetrics("b.mp4")

	all := GetAllTranscodeMetrics()
	if all["a.mp4"] == nil || all["a.mp4"].Progress != 0.5 {
		t.Errorf("a.mp4 = %+v", all["a.mp4"])
	}
	if all["b.mp4"] == nil || all["b.mp4"].Progress != 1.0 {
		t.Errorf("b.mp4 = %+v", all["b.mp4"])
	}
}

func TestRecordCounters(t *testing.T) {
	before := testutil.ToFloat64(transcodeRuns.WithLabelValues(OutcomeTimeout))
	RecordTranscode(OutcomeTimeout, 2*time.Second)
	if got := testutil.ToFloat64(transcodeRuns.WithLabelValues(OutcomeTimeout)); got != before+1 {
		t.Errorf("runs_total{timeout} = %v, want %v", got, before+1)
	}

	beforeSteps := testutil.ToFloat64(preEncodeSteps.WithLabelValues(OutcomeSuccess))
	RecordPreEncode(OutcomeSuccess)
	if got := testutil.ToFloat64(preEncodeSteps.WithLabelValues(OutcomeSuccess)); got != beforeSteps+1 {
		t.Errorf("pre_encode_steps_total{success} = %v", got)
	}

	beforeIntervals := testutil.ToFloat64(blackIntervals)
	RecordBlackDetect(true, 3)
	if got := testutil.ToFloat64(blackIntervals); got != beforeIntervals+3 {
		t.Errorf("intervals_total = %v, want %v", got, beforeIntervals+3)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	output := "concurrent.mp4"
	defer DeleteTranscodeMetrics(output)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			SetTranscodeProgress(output, v)
			SetTranscodeSpeed(output, v)
			_ = GetTranscodeMetrics(output)
		}(float64(i) / 10)
	}
	wg.Wait()

	if GetTranscodeMetrics(output) == nil {
		t.Error("expected metrics after concurrent updates")
	}
}

func TestWriteTextfile(t *testing.T) {
	SetTranscodeProgress("textfile.mp4", 0.75)
	defer DeleteTranscodeMetrics("textfile.mp4")

	path := filepath.Join(t.TempDir(), "ffwrap.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `ffwrap_transcode_progress_ratio{output="textfile.mp4"} 0.75`) {
		t.Errorf("textfile missing progress gauge:\n%s", data)
	}
}
