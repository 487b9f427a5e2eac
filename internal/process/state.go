package process

import "time"

// Status classifies how a run ended.
type Status int

// Run outcomes.
const (
	StatusExited   Status = iota // process exited on its own; see ExitCode
	StatusTimedOut               // no chunk arrived within the timeout, process killed
	StatusCanceled               // context canceled, process killed
	StatusFailed                 // process could not be started
)

func (s Status) String() string {
	switch s {
	case StatusExited:
		return "exited"
	case StatusTimedOut:
		return "timed_out"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished run.
type Result struct {
	Status   Status
	ExitCode int
	// Output is every decoded chunk of the combined output stream, in order.
	Output  string
	Err     error
	PID     int
	Elapsed time.Duration
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool {
	return r.Status == StatusExited && r.ExitCode == 0
}
