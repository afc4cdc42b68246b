package adventure

import (
	"errors"
	"fmt"
)

var (
	// ErrConsistency means the active node cannot be found in the story tree.
	// The only recovery is a full Reset.
	ErrConsistency = errors.New("adventure state is inconsistent")

	// ErrNotEmpty means an initial node was applied to an adventure that already has nodes.
	ErrNotEmpty = errors.New("adventure already has a story")

	// ErrAlreadyStarted means onboarding settings were changed after the story began.
	ErrAlreadyStarted = errors.New("adventure has already started")
)

// ConsistencyError carries the active id that could not be located.
type ConsistencyError struct {
	CurrentNodeID string
	Reason        string
}

func (e *ConsistencyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (current node %q)", ErrConsistency, e.Reason, e.CurrentNodeID)
	}
	return fmt.Sprintf("%s: current node %q not found", ErrConsistency, e.CurrentNodeID)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}
