package descriptor

import (
	"encoding/json"
)

// Trace captures how each link of a chain holds the traced property, from the
// head down to the native tail.
type Trace struct {
	Key    string       `json:"key"`
	Layers []Provenance `json:"layers"`
}

// Provenance details one link of a traced chain.
type Provenance struct {
	Kind       string `json:"kind"`
	LayerID    string `json:"layer_id,omitempty"`
	Index      *int   `json:"index,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Raw        any    `json:"raw,omitempty"`
	Enabled    bool   `json:"enabled"`
	ActiveGet  bool   `json:"active_get"`
	ActiveSet  bool   `json:"active_set"`
	Hooked     bool   `json:"hooked"`
}

// TraceOf walks the chain starting at head. Raw values are read from obj's
// storage without running any hook. A cyclic chain stops at the first repeat.
func TraceOf(obj Object, key string, head Descriptor) Trace {
	trace := Trace{Key: key, Layers: []Provenance{}}
	seen := map[*Layer]struct{}{}
	for cursor := present(head); cursor != nil; {
		switch typed := cursor.(type) {
		case *Layer:
			if _, dup := seen[typed]; dup {
				return trace
			}
			seen[typed] = struct{}{}
			trace.Layers = append(trace.Layers, Provenance{
				Kind:       "layer",
				LayerID:    typed.id,
				Index:      typed.Index(),
				PrivateKey: typed.privateKey,
				Raw:        rawField(obj, typed.privateKey),
				Enabled:    typed.enabled,
				ActiveGet:  typed.active.ForGet(),
				ActiveSet:  typed.active.ForSet(),
				Hooked:     typed.onGet != nil || typed.onSet != nil,
			})
			cursor = present(typed.previous)
			continue
		case *DataDescriptor:
			trace.Layers = append(trace.Layers, Provenance{
				Kind:    "data",
				Raw:     typed.Value,
				Enabled: true,
			})
		case *AccessorDescriptor:
			trace.Layers = append(trace.Layers, Provenance{
				Kind:    "accessor",
				Enabled: true,
			})
		}
		return trace
	}
	return trace
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
