package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// Builder constructs the continuation prompt using a fluent interface.
// The model keeps no state between calls, so the arc, the story so far and
// the turn limit are restated every time.
type Builder struct {
	arc        *adventure.StoryArc
	history    string
	userChoice string
	turn       int
	maxTurns   int
	hasDrawing bool
}

// New creates a builder with the default turn ceiling.
func New() *Builder {
	return &Builder{
		maxTurns: MaxTurns,
	}
}

// WithArc sets the story plan.
func (b *Builder) WithArc(arc adventure.StoryArc) *Builder {
	b.arc = &arc
	return b
}

// WithHistory sets the concatenated story text so far.
func (b *Builder) WithHistory(history string) *Builder {
	b.history = history
	return b
}

// WithUserChoice sets the text of the choice the reader picked.
func (b *Builder) WithUserChoice(choice string) *Builder {
	b.userChoice = choice
	return b
}

// WithTurn sets the current turn number.
func (b *Builder) WithTurn(turn int) *Builder {
	b.turn = turn
	return b
}

// WithMaxTurns overrides the turn ceiling.
func (b *Builder) WithMaxTurns(maxTurns int) *Builder {
	b.maxTurns = maxTurns
	return b
}

// WithDrawing marks that the reader submitted a drawing with their choice.
func (b *Builder) WithDrawing(hasDrawing bool) *Builder {
	b.hasDrawing = hasDrawing
	return b
}

// Build returns the continuation prompt.
func (b *Builder) Build() (string, error) {
	if b.arc == nil {
		return "", fmt.Errorf("story arc is required")
	}
	if strings.TrimSpace(b.userChoice) == "" {
		return "", fmt.Errorf("user choice is required")
	}
	if b.turn < 1 {
		return "", fmt.Errorf("turn must be at least 1, got %d", b.turn)
	}

	var sb strings.Builder
	sb.WriteString("You are an AI storyteller continuing a story for a child. Maintain a consistent, positive, and safe tone.\n\n")
	sb.WriteString(ArcSummary(*b.arc))
	sb.WriteString("\n\n")
	sb.WriteString("The story so far: \"" + b.history + "\"\n")
	sb.WriteString("The user chose: \"" + b.userChoice + "\".\n")
	sb.WriteString(fmt.Sprintf("This is turn number %d out of a maximum of %d.", b.turn, b.maxTurns))

	if b.hasDrawing {
		sb.WriteString("\nThe user has provided a drawing. Please incorporate the subject of their drawing into the next part of the story in a creative and fun way.")
	}

	sb.WriteString("\nContinue the story based on their choice, keeping our story plan in mind and moving the plot forward.\n")
	sb.WriteString("Provide the next story paragraph and three new, equally exciting and adventurous choices. The choices should be distinct paths that sound really fun.\n")
	sb.WriteString(DrawingInstruction + "\n")
	sb.WriteString(`If this is a natural ending to the story (based on the "WRAP IT UP" part of the arc), add "<ENDING>" to your response and provide no choices.`)
	sb.WriteString("\n\n")
	sb.WriteString(ContinuationFormat)

	return sb.String(), nil
}

// BuildContinuation is a convenience function for the common case.
func BuildContinuation(arc adventure.StoryArc, history string, userChoice string, turn int, hasDrawing bool) (string, error) {
	return New().
		WithArc(arc).
		WithHistory(history).
		WithUserChoice(userChoice).
		WithTurn(turn).
		WithDrawing(hasDrawing).
		Build()
}
