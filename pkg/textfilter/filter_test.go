package textfilter

import (
	"testing"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

func TestFilter_Clean(t *testing.T) {
	filter := New()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple replacement",
			input:    "What the hell is that noise?",
			expected: "What the heck is that noise?",
		},
		{
			name:     "multiple words",
			input:    "The pirate drew his knife and said damn.",
			expected: "The pirate drew his spoon and said dang.",
		},
		{
			name:     "uppercase preserved",
			input:    "DAMN, the ship is sinking!",
			expected: "DANG, the ship is sinking!",
		},
		{
			name:     "title case preserved",
			input:    "Hell no, said the parrot.",
			expected: "Heck no, said the parrot.",
		},
		{
			name:     "multi word title case",
			input:    "Shut Up, whispered the owl.",
			expected: "Hush, whispered the owl.",
		},
		{
			name:     "longest match wins",
			input:    "That is bullshit.",
			expected: "That is baloney.",
		},
		{
			name:     "word boundaries respected",
			input:    "A classical skill with a hello.",
			expected: "A classical skill with a hello.",
		},
		{
			name:     "clean text untouched",
			input:    "The dragon sneezed glitter.",
			expected: "The dragon sneezed glitter.",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFilter_Contains(t *testing.T) {
	filter := New()

	if !filter.Contains("they were killed") {
		t.Error("expected match")
	}
	if filter.Contains("they were skilled") {
		t.Error("expected no match inside a longer word")
	}
}

func TestFilter_CleanNode(t *testing.T) {
	filter := New()
	prompt := "Draw the knife!"
	node := adventure.NewStoryNode(nil, "The blood moon rose.", "img", []adventure.Choice{
		{Text: "Fight with a gun"},
		{Text: "Hide", DrawingPrompt: &prompt},
	}, false, nil)

	got := filter.CleanNode(node)

	if got.StoryText != "The goo moon rose." {
		t.Errorf("unexpected story text %q", got.StoryText)
	}
	if got.Choices[0].Text != "Fight with a water squirter" {
		t.Errorf("unexpected choice text %q", got.Choices[0].Text)
	}
	if got.Choices[1].DrawingPrompt == nil || *got.Choices[1].DrawingPrompt != "Draw the spoon!" {
		t.Errorf("unexpected drawing prompt %v", got.Choices[1].DrawingPrompt)
	}
	if prompt != "Draw the knife!" {
		t.Error("original drawing prompt was modified")
	}
	if got.ID != node.ID || got.ImageBase64 != "img" {
		t.Error("node identity and media should be untouched")
	}
}

func TestFilter_CleanArc(t *testing.T) {
	arc := New().CleanArc(adventure.StoryArc{
		Scene:         "A town.",
		Ruin:          "A thief steals the crown.",
		BreakingPoint: "The king is dead tired.",
		Cleanup:       "A plan.",
		WrapUp:        "A party.",
	})
	if arc.BreakingPoint != "The king is asleep tired." {
		t.Errorf("unexpected breaking point %q", arc.BreakingPoint)
	}
	if arc.Scene != "A town." {
		t.Errorf("unexpected scene %q", arc.Scene)
	}
}
