package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// JSONWriter writes every bus event as one JSON line:
//
//	{"event":"transcode.progress","data":{...}}
type JSONWriter struct {
	bus     *Bus
	enc     *json.Encoder
	ch      chan Event
	unsub   func()
	mu      sync.Mutex
	cond    *sync.Cond
	written int64
	err     error
}

type envelope struct {
	Event string `json:"event"`
	Data  Event  `json:"data"`
}

// NewJSONWriter subscribes to bus and starts writing to w.
func NewJSONWriter(bus *Bus, w io.Writer) *JSONWriter {
	jw := &JSONWriter{
		bus: bus,
		enc: json.NewEncoder(w),
		ch:  make(chan Event, 64),
	}
	jw.cond = sync.NewCond(&jw.mu)
	jw.unsub = SubscribeAll(bus, jw.ch)
	go jw.loop()
	return jw
}

func (jw *JSONWriter) loop() {
	for ev := range jw.ch {
		err := jw.enc.Encode(envelope{Event: Name(ev), Data: ev})
		jw.mu.Lock()
		jw.written++
		if err != nil && jw.err == nil {
			jw.err = err
		}
		jw.cond.Broadcast()
		jw.mu.Unlock()
	}
}

// Flush waits until every event published so far has been written, or the
// timeout passes. It returns the first write error.
func (jw *JSONWriter) Flush(timeout time.Duration) error {
	target := jw.bus.Published()
	deadline := time.Now().Add(timeout)

	timer := time.AfterFunc(timeout, func() {
		jw.mu.Lock()
		jw.cond.Broadcast()
		jw.mu.Unlock()
	})
	defer timer.Stop()

	jw.mu.Lock()
	defer jw.mu.Unlock()
	for jw.written < target && time.Now().Before(deadline) {
		jw.cond.Wait()
	}
	return jw.err
}

// Close flushes pending events and unsubscribes. Events published after
// Close are not written.
func (jw *JSONWriter) Close() error {
	err := jw.Flush(time.Second)
	jw.unsub()
	return err
}
