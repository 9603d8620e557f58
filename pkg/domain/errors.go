package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidLane is returned when a lane index is outside [0, laneCount).
var ErrInvalidLane = errors.New("invalid lane")

// ErrInvalidBlock is returned when a block index is outside the addressed lane.
var ErrInvalidBlock = errors.New("invalid block")

// ErrInvalidRule is returned when a rule carries an unknown action.
var ErrInvalidRule = errors.New("invalid rule")

// ErrMoveDenied marks a move rejected by a deny rule. It is an expected
// outcome, not a fault: hosts should show a notice rather than an error.
var ErrMoveDenied = errors.New("move denied")

// ErrBoardNotFound is returned when a board key cannot be found in the store.
var ErrBoardNotFound = errors.New("board not found")

// IndexError reports a stale or out-of-range position.
type IndexError struct {
	Kind  error // ErrInvalidLane or ErrInvalidBlock
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: index %d out of range [0, %d)", e.Kind, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return e.Kind
}

// MoveDeniedError carries what a host needs to explain a denied move.
type MoveDeniedError struct {
	// From and To are 1-based lane positions, as keyed by rules.
	From, To int

	FromLane string
	ToLane   string
}

func (e *MoveDeniedError) Error() string {
	return fmt.Sprintf("%v: you are not allowed to move blocks from %s to %s", ErrMoveDenied, e.FromLane, e.ToLane)
}

func (e *MoveDeniedError) Is(target error) bool {
	return target == ErrMoveDenied
}
