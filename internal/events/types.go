package events

// Event type constants for kelindar/event.
const (
	TypeTranscodeStarted uint32 = iota + 1
	TypePreEncode
	TypeTranscodeProgress
	TypeTranscodeCompleted
	TypeTranscodeFailed
	TypeBlackDetectCompleted
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// TranscodeStartedEvent is published before the first process runs.
type TranscodeStartedEvent struct {
	Inputs    []string `json:"inputs"`
	Output    string   `json:"output"`
	Command   string   `json:"command"`
	Timestamp string   `json:"timestamp"`
}

// Type returns the event type identifier for TranscodeStartedEvent.
func (e TranscodeStartedEvent) Type() uint32 { return TypeTranscodeStarted }

// PreEncodeEvent reports one finished per-input normalization pass.
type PreEncodeEvent struct {
	Input     string `json:"input"`
	Interim   string `json:"interim"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Outcome   string `json:"outcome"` // success, timeout, failed, canceled
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for PreEncodeEvent.
func (e PreEncodeEvent) Type() uint32 { return TypePreEncode }

// TranscodeProgressEvent carries one progress sample. Progress is not
// clamped and may exceed 1 when the source duration is wrong.
type TranscodeProgressEvent struct {
	Output    string  `json:"output"`
	Progress  float64 `json:"progress"`
	Timestamp string  `json:"timestamp"`
}

// Type returns the event type identifier for TranscodeProgressEvent.
func (e TranscodeProgressEvent) Type() uint32 { return TypeTranscodeProgress }

// TranscodeCompletedEvent is published after a run that passed validation,
// or after any clean run when validation is off.
type TranscodeCompletedEvent struct {
	Output     string  `json:"output"`
	Validated  bool    `json:"validated"`
	DurationMS int64   `json:"duration_ms"`
	Media      float64 `json:"media_duration,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Type returns the event type identifier for TranscodeCompletedEvent.
func (e TranscodeCompletedEvent) Type() uint32 { return TypeTranscodeCompleted }

// TranscodeFailedEvent is published when a run ends in a timeout or failure.
type TranscodeFailedEvent struct {
	Output    string   `json:"output"`
	Reason    string   `json:"reason"` // timeout, failed, canceled
	Checks    []string `json:"checks,omitempty"`
	Error     string   `json:"error"`
	Timestamp string   `json:"timestamp"`
}

// Type returns the event type identifier for TranscodeFailedEvent.
func (e TranscodeFailedEvent) Type() uint32 { return TypeTranscodeFailed }

// BlackDetectCompletedEvent reports the outcome of a black frame scan.
type BlackDetectCompletedEvent struct {
	Input     string `json:"input"`
	Intervals int    `json:"intervals"`
	Valid     bool   `json:"valid"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for BlackDetectCompletedEvent.
func (e BlackDetectCompletedEvent) Type() uint32 { return TypeBlackDetectCompleted }

// Name returns the wire name of an event.
func Name(ev Event) string {
	switch ev.(type) {
	case TranscodeStartedEvent:
		return "transcode.started"
	case PreEncodeEvent:
		return "transcode.pre_encode"
	case TranscodeProgressEvent:
		return "transcode.progress"
	case TranscodeCompletedEvent:
		return "transcode.completed"
	case TranscodeFailedEvent:
		return "transcode.failed"
	case BlackDetectCompletedEvent:
		return "blackdetect.completed"
	default:
		return "unknown"
	}
}
