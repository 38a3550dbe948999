package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while navigating the forest.
//
// Runtime errors include:
//   - Node not found: an id the Stack cannot resolve (fatal for the cycle)
//   - Invalid forest: duplicate ids, dangling references or link loops
//   - Empty path: the Jit was asked to compile nothing
//   - No runtime: the driver has no runtime to feed
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// NodeID identifies the affected node, when there is one.
	NodeID *int

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNodeNotFound indicates an id that does not resolve in the Stack.
	ErrCodeNodeNotFound RuntimeErrorCode = "NODE_NOT_FOUND"

	// ErrCodeInvalidForest indicates a forest the runtime cannot walk.
	ErrCodeInvalidForest RuntimeErrorCode = "INVALID_FOREST"

	// ErrCodeEmptyPath indicates an attempt to compile an empty path.
	ErrCodeEmptyPath RuntimeErrorCode = "EMPTY_PATH"

	// ErrCodeNoRuntime indicates the driver has no runtime.
	ErrCodeNoRuntime RuntimeErrorCode = "NO_RUNTIME"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.NodeID != nil {
		return fmt.Sprintf("%s: %s (node=%d)", e.Code, e.Message, *e.NodeID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFoundError returns true if the error is a node lookup failure.
// Uses errors.As to handle wrapped errors.
func IsNotFoundError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNodeNotFound
	}
	return false
}

// IsInvalidForestError returns true if the error rejects a forest.
func IsInvalidForestError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidForest
	}
	return false
}

// NewNotFoundError creates a RuntimeError for an unresolvable node id.
func NewNotFoundError(id int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNodeNotFound,
		Message: "node id does not resolve in the forest",
		NodeID:  &id,
	}
}

// NewInvalidForestError creates a RuntimeError for a malformed forest.
func NewInvalidForestError(id int, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidForest,
		Message: fmt.Sprintf(format, args...),
		NodeID:  &id,
	}
}
