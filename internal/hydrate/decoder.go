package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNilPayload is returned when Decode receives no payload.
var ErrNilPayload = errors.New("hydrate: payload is nil")

// Context identifies where a payload came from, for error messages and hooks.
type Context struct {
	Source string
	Key    string
}

// Stage names the decoding step that failed.
type Stage string

const (
	StagePayload  Stage = "payload"
	StagePreHook  Stage = "pre-hook"
	StageDecode   Stage = "decode"
	StagePostHook Stage = "post-hook"
)

// DecodeError reports the source and stage of a failed Decode.
type DecodeError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("hydrate: %s for source %q: %v", e.Stage, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PreHook rewrites the raw payload before it is decoded. Hooks receive a copy
// and may return nil to keep it unchanged.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook validates or completes a decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON round trip.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder turns loosely typed maps, such as viper settings or parsed JSON,
// into T by way of a JSON round trip.
type Decoder[T any] struct {
	pre    []PreHook
	post   []PostHook[T]
	tune   []func(*json.Decoder)
	custom CustomDecoder[T]
}

// WithPreHook appends a payload rewrite.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

// WithPostHook appends a check run on the decoded value.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithUseNumber keeps numbers in untyped fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return WithDecoderConfig[T]((*json.Decoder).UseNumber)
}

// WithDisallowUnknownFields rejects payload keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return WithDecoderConfig[T]((*json.Decoder).DisallowUnknownFields)
}

// WithDecoderConfig tunes the json.Decoder before decoding.
func WithDecoderConfig[T any](configure func(*json.Decoder)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if configure != nil {
			d.tune = append(d.tune, configure)
		}
	}
}

// WithCustomDecoder replaces the JSON round trip with decoder.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

// NewDecoder builds a Decoder from opts.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the pre-hooks over a copy of payload, decodes the result into T
// and runs the post-hooks. The caller's payload is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	fail := func(stage Stage, err error) (T, error) {
		return zero, &DecodeError{Source: ctx.Source, Stage: stage, Err: err}
	}

	if payload == nil {
		return fail(StagePayload, ErrNilPayload)
	}
	current, err := copyPayload(payload)
	if err != nil {
		return fail(StagePayload, err)
	}

	for _, hook := range d.pre {
		next, err := hook(ctx, current)
		if err != nil {
			return fail(StagePreHook, err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return fail(StageDecode, err)
	}

	for _, hook := range d.post {
		if err := hook(ctx, &result); err != nil {
			return fail(StagePostHook, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	if d.custom != nil {
		return d.custom(ctx, payload)
	}
	var result T
	buffer, err := json.Marshal(payload)
	if err != nil {
		return result, err
	}
	dec := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.tune {
		configure(dec)
	}
	err = dec.Decode(&result)
	return result, err
}

// copyPayload deep-copies payload through JSON; numbers become float64.
func copyPayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	err = json.Unmarshal(buffer, &out)
	return out, err
}
