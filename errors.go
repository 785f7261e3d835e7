package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrCyclicChain indicates a predecessor link would make the chain revisit a layer.
	ErrCyclicChain = errors.New("descriptor: predecessor chain is cyclic")
	// ErrNotConfigurable indicates the slot refuses to be redefined.
	ErrNotConfigurable = errors.New("descriptor: property is not configurable")
	// ErrNilLayer indicates an operation received a nil layer.
	ErrNilLayer = errors.New("descriptor: layer must not be nil")
	// ErrNilTarget indicates an operation received a nil target object.
	ErrNilTarget = errors.New("descriptor: target must not be nil")
	// ErrKeyRequired indicates an empty property key.
	ErrKeyRequired = errors.New("descriptor: key must be provided")
)

// ChainError attaches the property key and chain position to a failure raised
// while assembling a chain.
type ChainError struct {
	Key   string
	Index int
	Err   error
}

func (e *ChainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("descriptor: chain key=%q index=%d: %v", e.Key, e.Index, e.Err)
}

func (e *ChainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapChainError(key string, index int, err error) error {
	if err == nil {
		return nil
	}
	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		return err
	}
	return &ChainError{Key: key, Index: index, Err: err}
}
