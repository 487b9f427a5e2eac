// Package metrics provides Prometheus metrics for transcode runs and black
// frame scans.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transcodeProgress = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ffwrap",
		Subsystem: "transcode",
		Name:      "progress_ratio",
		Help:      "Fraction of the source duration encoded so far",
	}, []string{"output"})

	transcodeFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ffwrap",
		Subsystem: "transcode",
		Name:      "fps",
		Help:      "Current FFmpeg encoding FPS",
	}, []string{"output"})

	transcodeSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ffwrap",
		Subsystem: "transcode",
		Name:      "processing_speed",
		Help:      "FFmpeg processing speed multiplier",
	}, []string{"output"})

	transcodeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ffwrap",
		Subsystem: "transcode",
		Name:      "runs_total",
		Help:      "Finished transcode runs by outcome",
	}, []string{"outcome"})

	transcodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ffwrap",
		Subsystem: "transcode",
		Name:      "duration_seconds",
		Help:      "Wall clock time of transcode runs",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	preEncodeSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ffwrap",
		Subsystem: "transcode",
		Name:      "pre_encode_steps_total",
		Help:      "Per-input normalization passes by outcome",
	}, []string{"outcome"})

	blackIntervals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ffwrap",
		Subsystem: "blackdetect",
		Name:      "intervals_total",
		Help:      "Black intervals found",
	})

	blackScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ffwrap",
		Subsystem: "blackdetect",
		Name:      "scans_total",
		Help:      "Black frame scans by validity",
	}, []string{"valid"})

	// Local cache so callers can read back current values.
	transcodeCache   = make(map[string]*TranscodeMetrics)
	transcodeCacheMu sync.RWMutex
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeTimeout  = "timeout"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// TranscodeMetrics holds current metric values for an output.
type TranscodeMetrics struct {
	Progress float64
	FPS      float64
	Speed    float64
}

// SetTranscodeProgress sets the progress fraction for an output.
func SetTranscodeProgress(output string, progress float64) {
	transcodeProgress.WithLabelValues(output).Set(progress)
	updateCache(output, func(m *TranscodeMetrics) { m.Progress = progress })
}

// SetTranscodeFPS sets the current FPS for an output.
func SetTranscodeFPS(output string, fps float64) {
	transcodeFPS.WithLabelValues(output).Set(fps)
	updateCache(output, func(m *TranscodeMetrics) { m.FPS = fps })
}

// SetTranscodeSpeed sets the processing speed for an output.
func SetTranscodeSpeed(output string, speed float64) {
	transcodeSpeed.WithLabelValues(output).Set(speed)
	updateCache(output, func(m *TranscodeMetrics) { m.Speed = speed })
}

// RecordTranscode counts a finished run and observes its duration.
func RecordTranscode(outcome string, elapsed time.Duration) {
	transcodeRuns.WithLabelValues(outcome).Inc()
	transcodeDuration.Observe(elapsed.Seconds())
}

// RecordPreEncode counts a finished normalization pass.
func RecordPreEncode(outcome string) {
	preEncodeSteps.WithLabelValues(outcome).Inc()
}

// RecordBlackDetect counts a scan and the intervals it found.
func RecordBlackDetect(valid bool, intervals int) {
	blackScans.WithLabelValues(fmt.Sprint(valid)).Inc()
	blackIntervals.Add(float64(intervals))
}

// DeleteTranscodeMetrics removes all gauges for an output.
func DeleteTranscodeMetrics(output string) {
	transcodeProgress.DeleteLabelValues(output)
	transcodeFPS.DeleteLabelValues(output)
	transcodeSpeed.DeleteLabelValues(output)

	transcodeCacheMu.Lock()
	delete(transcodeCache, output)
	transcodeCacheMu.Unlock()
}

// GetTranscodeMetrics returns current metric values for an output.
func GetTranscodeMetrics(output string) *TranscodeMetrics {
	transcodeCacheMu.RLock()
	defer transcodeCacheMu.RUnlock()
	if m, ok := transcodeCache[output]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// GetAllTranscodeMetrics returns metrics for all tracked outputs.
func GetAllTranscodeMetrics() map[string]*TranscodeMetrics {
	transcodeCacheMu.RLock()
	defer transcodeCacheMu.RUnlock()
	result := make(map[string]*TranscodeMetrics, len(transcodeCache))
	for id, m := range transcodeCache {
		dup := *m
		result[id] = &dup
	}
	return result
}

func updateCache(output string, update func(*TranscodeMetrics)) {
	transcodeCacheMu.Lock()
	defer transcodeCacheMu.Unlock()
	m, ok := transcodeCache[output]
	if !ok {
		m = &TranscodeMetrics{}
		transcodeCache[output] = m
	}
	update(m)
}
