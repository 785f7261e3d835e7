package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives; tests assert on it and examples
// print it. Err, when set, is returned from each Notify.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs lists the captured verbs in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// ForKey returns the captured events about property key.
func (h *CaptureHook) ForKey(key string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.Key == key {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops the captured events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	h.Events = nil
	h.mu.Unlock()
}
