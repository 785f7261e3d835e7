package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is one observed layer action: an install, a stored write or a write a
// disabled layer skipped.
type Event struct {
	Verb       string
	ObjectType string
	ObjectID   string
	Key        string
	LayerID    string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// complete reports whether the identifying fields are set.
func (e Event) complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to several hooks.
type Hooks []ActivityHook

// Enabled reports whether h holds any hook.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and hands it to every hook. Incomplete events are
// dropped. Every hook runs; failures are joined, each tagged with the hook's
// position.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims the string fields, copies the metadata and stamps
// OccurredAt when it is zero.
func NormalizeEvent(event Event) Event {
	out := event
	for _, field := range []*string{&out.Verb, &out.ObjectType, &out.ObjectID, &out.Key, &out.LayerID, &out.Channel} {
		*field = strings.TrimSpace(*field)
	}
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
