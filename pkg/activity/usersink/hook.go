// Package usersink forwards layer activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"time"

	"github.com/goliatone/go-descriptor/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts layer events to a go-users ActivitySink. Layer events carry no
// actor, so the actor and tenant are fixed per hook.
type Hook struct {
	Sink     usertypes.ActivitySink
	ActorID  uuid.UUID
	TenantID uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := map[string]any{}
	for key, value := range normalized.Metadata {
		data[key] = value
	}
	if normalized.Key != "" {
		data["key"] = normalized.Key
	}
	if normalized.LayerID != "" {
		data["layer_id"] = normalized.LayerID
	}

	record := usertypes.ActivityRecord{
		ActorID:    h.ActorID,
		TenantID:   h.TenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	return h.Sink.Log(ctx, record)
}
