package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan TranscodeProgressEvent, 1)

	unsub := bus.Subscribe(func(e TranscodeProgressEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(TranscodeProgressEvent{Output: "/tmp/out.mp4", Progress: 0.5})

	select {
	case got := <-received:
		if got.Output != "/tmp/out.mp4" || got.Progress != 0.5 {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan TranscodeStartedEvent, 1)
	received2 := make(chan TranscodeStartedEvent, 1)

	unsub1 := bus.Subscribe(func(e TranscodeStartedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e TranscodeStartedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(TranscodeStartedEvent{Output: "out.mp4"})

	for _, ch := range []chan TranscodeStartedEvent{received1, received2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan TranscodeFailedEvent, 1)

	unsub := bus.Subscribe(func(e TranscodeFailedEvent) {
		received <- e
	})

	bus.Publish(TranscodeFailedEvent{Reason: "timeout"})
	<-received

	unsub()

	bus.Publish(TranscodeFailedEvent{Reason: "failed"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandlerIsNoop(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_PublishedCount(t *testing.T) {
	bus := New()
	bus.Publish(PreEncodeEvent{Index: 0, Total: 2})
	bus.Publish(PreEncodeEvent{Index: 1, Total: 2})
	if got := bus.Published(); got != 2 {
		t.Errorf("Published() = %d, want 2", got)
	}

	var nilBus *Bus
	nilBus.Publish(PreEncodeEvent{})
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := New()
	var mu sync.Mutex
	count := 0
	done := make(chan struct{})

	unsub := bus.Subscribe(func(TranscodeProgressEvent) {
		mu.Lock()
		count++
		if count == 100 {
			close(done)
		}
		mu.Unlock()
	})
	defer unsub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				bus.Publish(TranscodeProgressEvent{Progress: float64(j) / 10})
			}
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		mu.Lock()
		defer mu.Unlock()
		t.Fatalf("received %d of 100 events", count)
	}
}

func TestEventNames(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{TranscodeStartedEvent{}, "transcode.started"},
		{PreEncodeEvent{}, "transcode.pre_encode"},
		{TranscodeProgressEvent{}, "transcode.progress"},
		{TranscodeCompletedEvent{}, "transcode.completed"},
		{TranscodeFailedEvent{}, "transcode.failed"},
		{BlackDetectCompletedEvent{}, "blackdetect.completed"},
	}
	seen := map[uint32]bool{}
	for _, tt := range tests {
		if got := Name(tt.ev); got != tt.want {
			t.Errorf("Name(%T) = %q, want %q", tt.ev, got, tt.want)
		}
		if seen[tt.ev.Type()] {
			t.Errorf("duplicate type id %d", tt.ev.Type())
		}
		seen[tt.ev.Type()] = true
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestJSONWriter(t *testing.T) {
	bus := New()
	var out syncBuffer
	w := NewJSONWriter(bus, &out)

	bus.Publish(TranscodeStartedEvent{Output: "out.mp4"})
	bus.Publish(TranscodeCompletedEvent{Output: "out.mp4", Validated: true})

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}

	names := map[string]bool{}
	for _, line := range lines {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		names[env.Event] = true
	}
	if !names["transcode.started"] || !names["transcode.completed"] {
		t.Errorf("events written = %v", names)
	}
}
