package adventure

import "fmt"

// The functions in this file are the only way the story tree changes.
// Each takes an Adventure by value and returns the next value; the input
// is never modified, so callers can keep the old value on failure.

// WithAgeGroup records the reader's age band during onboarding.
func WithAgeGroup(a Adventure, ag AgeGroup) (Adventure, error) {
	if a.Started() {
		return a, ErrAlreadyStarted
	}
	a.AgeGroup = ag
	return a, nil
}

// WithTheme records the chosen theme during onboarding.
func WithTheme(a Adventure, t Theme) (Adventure, error) {
	if a.Started() {
		return a, ErrAlreadyStarted
	}
	a.Theme = t
	return a, nil
}

// ApplyInitialNode stores the arc and makes node the root and active node.
// The tree must be empty.
func ApplyInitialNode(a Adventure, node StoryNode, arc StoryArc) (Adventure, error) {
	if len(a.StoryTree) != 0 {
		return a, fmt.Errorf("apply initial node %s: %w", node.ID, ErrNotEmpty)
	}

	node.ParentID = nil
	a.StoryTree = []StoryNode{node}
	a.CurrentNodeID = node.ID
	a.StoryArc = &arc
	return a, nil
}

// ApplyNextNode prunes media from the active node, appends node and makes it active.
// If the active node is missing it returns a *ConsistencyError and a unchanged.
func ApplyNextNode(a Adventure, node StoryNode) (Adventure, error) {
	idx := -1
	for i, n := range a.StoryTree {
		if n.ID == a.CurrentNodeID {
			idx = i
			break
		}
	}
	if a.CurrentNodeID == "" || idx == -1 {
		return a, &ConsistencyError{CurrentNodeID: a.CurrentNodeID}
	}

	tree := make([]StoryNode, len(a.StoryTree), len(a.StoryTree)+1)
	copy(tree, a.StoryTree)

	// Only the displayed node keeps its image and narration.
	tree[idx].ImageBase64 = ""
	tree[idx].AudioBase64 = nil

	parent := tree[idx].ID
	node.ParentID = &parent

	a.StoryTree = append(tree, node)
	a.CurrentNodeID = node.ID
	return a, nil
}

// Reset returns the empty onboarding state. The adventure keeps its id so the
// same storage slot is reused.
func Reset(a Adventure) Adventure {
	return Adventure{
		ID:        a.ID,
		StoryTree: make([]StoryNode, 0),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// Validate checks the structural invariants of a loaded adventure.
func Validate(a Adventure) error {
	if len(a.StoryTree) == 0 {
		if a.CurrentNodeID != "" {
			return &ConsistencyError{CurrentNodeID: a.CurrentNodeID, Reason: "active id set on empty tree"}
		}
		return nil
	}

	if _, ok := a.CurrentNode(); !ok {
		return &ConsistencyError{CurrentNodeID: a.CurrentNodeID}
	}

	roots := 0
	for _, n := range a.StoryTree {
		if n.ParentID == nil {
			roots++
		}
		if n.ID != a.CurrentNodeID && n.HasMedia() {
			return &ConsistencyError{CurrentNodeID: a.CurrentNodeID, Reason: fmt.Sprintf("inactive node %q still carries media", n.ID)}
		}
	}
	if roots != 1 {
		return &ConsistencyError{CurrentNodeID: a.CurrentNodeID, Reason: fmt.Sprintf("expected one root, found %d", roots)}
	}
	return nil
}
