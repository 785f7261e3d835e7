package activity

import (
	"strings"
	"time"
)

// Verbs emitted by layers.
const (
	VerbValueSet       = "descriptor.value.set"
	VerbValueSkipped   = "descriptor.value.skipped"
	VerbLayerInstalled = "descriptor.layer.installed"
)

// ObjectTypeLayer is the object type of every layer event.
const ObjectTypeLayer = "descriptor.layer"

// ValueEventInput describes the layer and values involved in an event.
type ValueEventInput struct {
	Key        string
	PrivateKey string
	LayerID    string
	Index      *int
	OldValue   any
	NewValue   any
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildValueSetEvent describes a write stored in a layer's private storage.
func BuildValueSetEvent(input ValueEventInput) Event {
	return buildLayerEvent(VerbValueSet, input)
}

// BuildValueSkippedEvent describes a write a disabled layer only forwarded.
func BuildValueSkippedEvent(input ValueEventInput) Event {
	return buildLayerEvent(VerbValueSkipped, input)
}

// BuildLayerInstalledEvent describes a layer bound onto a target.
func BuildLayerInstalledEvent(input ValueEventInput) Event {
	return buildLayerEvent(VerbLayerInstalled, input)
}

func buildLayerEvent(verb string, input ValueEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.PrivateKey != "" {
		metadata = ensureMetadata(metadata)
		metadata["private_key"] = input.PrivateKey
	}
	if input.Index != nil {
		metadata = ensureMetadata(metadata)
		metadata["index"] = *input.Index
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.LayerID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Key)
	}
	if objectID == "" {
		objectID = ObjectTypeLayer
	}

	return Event{
		Verb:       verb,
		ObjectType: ObjectTypeLayer,
		ObjectID:   objectID,
		Key:        strings.TrimSpace(input.Key),
		LayerID:    strings.TrimSpace(input.LayerID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
