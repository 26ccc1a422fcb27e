package eventrouter

import (
	"errors"
	"fmt"
)

// Programming-error faults. The router never returns these; it panics with
// them so that recover() yields a value usable with errors.Is.
var (
	// ErrUnknownHandle is raised when unsubscribing a handle that is not live.
	ErrUnknownHandle = errors.New("unknown subscriber handle")

	// ErrNilCallback is raised when subscribing a nil callback.
	ErrNilCallback = errors.New("callback cannot be nil")

	// ErrNilInstance is raised when binding a method to a nil instance.
	ErrNilInstance = errors.New("method instance cannot be nil")

	// ErrReentrantMutation is raised when a callback subscribes or
	// unsubscribes on the event type currently being dispatched.
	ErrReentrantMutation = errors.New("subscription changed during dispatch")
)

// HandleError reports an unsubscribe of a handle that was never issued or
// was already released.
type HandleError struct {
	// Type is the event type name of the registry.
	Type string

	// Handle is the offending handle.
	Handle Handle
}

// Error implements the error interface.
func (e *HandleError) Error() string {
	return fmt.Sprintf("unknown subscriber handle %d for event type %s", e.Handle, e.Type)
}

// Is allows errors.Is to match HandleError with ErrUnknownHandle.
func (e *HandleError) Is(target error) bool {
	return target == ErrUnknownHandle
}
