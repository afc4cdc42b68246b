package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

var testArc = adventure.StoryArc{
	Scene:         "A quiet village by the sea.",
	Ruin:          "A storm steals the lighthouse lamp.",
	BreakingPoint: "Ships are lost in the dark.",
	Cleanup:       "Mia builds a new lamp from sea glass.",
	WrapUp:        "The lighthouse shines again.",
}

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.maxTurns != MaxTurns {
		t.Errorf("Expected default max turns of %d, got %d", MaxTurns, builder.maxTurns)
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	builder := New().
		WithArc(testArc).
		WithHistory("Once upon a time.").
		WithUserChoice("Climb the hill").
		WithTurn(3).
		WithMaxTurns(12).
		WithDrawing(true)

	if builder.arc == nil || *builder.arc != testArc {
		t.Error("WithArc did not set arc")
	}
	if builder.history != "Once upon a time." {
		t.Error("WithHistory did not set history")
	}
	if builder.userChoice != "Climb the hill" {
		t.Error("WithUserChoice did not set choice")
	}
	if builder.turn != 3 {
		t.Error("WithTurn did not set turn")
	}
	if builder.maxTurns != 12 {
		t.Error("WithMaxTurns did not set max turns")
	}
	if !builder.hasDrawing {
		t.Error("WithDrawing did not set drawing flag")
	}
}

func TestBuilder_Build_Validation(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		wantErr string
	}{
		{
			name:    "missing arc",
			builder: New().WithUserChoice("Go").WithTurn(1),
			wantErr: "story arc is required",
		},
		{
			name:    "blank choice",
			builder: New().WithArc(testArc).WithUserChoice("   ").WithTurn(1),
			wantErr: "user choice is required",
		},
		{
			name:    "zero turn",
			builder: New().WithArc(testArc).WithUserChoice("Go"),
			wantErr: "turn must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestBuilder_Build_Content(t *testing.T) {
	prompt, err := New().
		WithArc(testArc).
		WithHistory("Mia woke early.\n\n\"Hello!\" said the owl.").
		WithUserChoice(`Say "hi" to the owl`).
		WithTurn(2).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, want := range []string{
		testArc.Scene, testArc.Ruin, testArc.BreakingPoint, testArc.Cleanup, testArc.WrapUp,
		"The story so far: \"Mia woke early.\n\n\"Hello!\" said the owl.\"\n",
		`The user chose: "Say "hi" to the owl".`,
		"This is turn number 2 out of a maximum of 10.",
		`"WRAP IT UP"`,
		`add "<ENDING>"`,
		"<STORY>", "<CHOICES>", "||", "<DRAWING>",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Contains(prompt, `\n`) || strings.Contains(prompt, `\"`) {
		t.Error("history and choice must be embedded without escaping")
	}

	if strings.Contains(prompt, "provided a drawing") {
		t.Error("prompt should not mention a drawing when none was submitted")
	}
}

func TestBuilder_Build_Drawing(t *testing.T) {
	prompt, err := BuildContinuation(testArc, "Story so far.", "Draw a key", 4, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(prompt, "The user has provided a drawing") {
		t.Error("expected drawing instruction in prompt")
	}
	if !strings.Contains(prompt, "turn number 4 out of a maximum of 10") {
		t.Error("expected turn line in prompt")
	}
}
