package plan

import (
	"errors"
	"fmt"
)

// ErrSlotFull signals that AddItem was called at the 3-item ceiling. The list
// is left untouched; this is a reported no-op, not a failure.
var ErrSlotFull = errors.New("meal slot already holds the maximum of 3 items")

// ErrEmptySlot signals an item operation against a slot with no suggestions.
var ErrEmptySlot = errors.New("meal slot has no suggestions yet")

// ErrIndexOutOfRange signals an item index outside the current list.
var ErrIndexOutOfRange = errors.New("item index out of range")

// ProviderError wraps any suggestion-provider failure: a thrown error, a
// timeout, or an empty or malformed payload. The reconciler never retries and
// never substitutes synthetic content; the error surfaces to the caller.
type ProviderError struct {
	Op  string // operation that triggered the call: suggest, reroll, add, regenerate
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("suggestion provider failed during %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
