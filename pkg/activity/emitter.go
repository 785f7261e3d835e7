package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events that do not name one.
const DefaultChannel = "descriptor"

// Config controls which layer events an Emitter forwards.
type Config struct {
	Enabled bool
	Channel string
	// Verbs restricts emission to the listed verbs. Empty means all.
	Verbs []string
}

// Emitter forwards layer events to hooks, applying the configured channel and
// verb filter.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	verbs   map[string]struct{}
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	var verbs map[string]struct{}
	for _, verb := range cfg.Verbs {
		verb = strings.TrimSpace(verb)
		if verb == "" {
			continue
		}
		if verbs == nil {
			verbs = map[string]struct{}{}
		}
		verbs[verb] = struct{}{}
	}
	filtered := compactHooks(hooks)
	return &Emitter{
		hooks:   filtered,
		enabled: cfg.Enabled && len(filtered) > 0,
		channel: channel,
		verbs:   verbs,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Accepts reports whether verb passes the emitter's filter.
func (e *Emitter) Accepts(verb string) bool {
	if !e.Enabled() {
		return false
	}
	if len(e.verbs) == 0 {
		return true
	}
	_, ok := e.verbs[strings.TrimSpace(verb)]
	return ok
}

// Emit forwards the event to all hooks when its verb is accepted.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Accepts(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}

func compactHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	out := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}
