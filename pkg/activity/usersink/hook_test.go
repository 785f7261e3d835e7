package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-descriptor/pkg/activity"
	"github.com/goliatone/go-descriptor/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsLayerEvent(t *testing.T) {
	sink := &recordingSink{}
	actorID := uuid.New()
	tenantID := uuid.New()
	hook := usersink.Hook{Sink: sink, ActorID: actorID, TenantID: tenantID}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	index := 2
	event := activity.BuildValueSetEvent(activity.ValueEventInput{
		Key:        "age",
		PrivateKey: "_age",
		LayerID:    "layer-1",
		Index:      &index,
		OldValue:   27,
		NewValue:   137,
		Channel:    "audit",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("expected fixed actor and tenant, got %s %s", record.ActorID, record.TenantID)
	}
	if record.Verb != activity.VerbValueSet || record.ObjectType != activity.ObjectTypeLayer {
		t.Fatalf("unexpected verb/object type: %s %s", record.Verb, record.ObjectType)
	}
	if record.ObjectID != "layer-1" || record.Channel != "audit" {
		t.Fatalf("unexpected object id/channel: %s %s", record.ObjectID, record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v, got %v", now, record.OccurredAt)
	}
	if record.Data["key"] != "age" || record.Data["private_key"] != "_age" {
		t.Fatalf("expected key metadata, got %+v", record.Data)
	}
	if record.Data["old_value"] != 27 || record.Data["new_value"] != 137 || record.Data["index"] != 2 {
		t.Fatalf("expected value metadata, got %+v", record.Data)
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: activity.VerbValueSet}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.records))
	}
}

func TestHookNotifyWithoutSink(t *testing.T) {
	hook := usersink.Hook{}
	if err := hook.Notify(context.Background(), activity.BuildLayerInstalledEvent(activity.ValueEventInput{Key: "age"})); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	hook := usersink.Hook{Sink: sink}
	err := hook.Notify(context.Background(), activity.BuildLayerInstalledEvent(activity.ValueEventInput{Key: "age", LayerID: "l"}))
	if err == nil || err.Error() != "sink down" {
		t.Fatalf("expected sink error, got %v", err)
	}
}
