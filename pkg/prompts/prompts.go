package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// MaxTurns is the turn ceiling stated in every continuation prompt.
const MaxTurns = 10

// DrawingInstruction tells the model how to attach a drawing prompt to a choice.
const DrawingInstruction = `Optionally, for ONE of the choices, ask the player to draw something relevant to that choice by adding "<DRAWING>Your drawing prompt here.</DRAWING>" right after the choice text.`

// InitialFormat is the exact output grammar requested on the first turn.
const InitialFormat = `Format your response EXACTLY like this:
<ARC_SCENE>Scene text here.</ARC_SCENE>
<ARC_RUIN>Ruin text here.</ARC_RUIN>
<ARC_BREAKING_POINT>Breaking point text here.</ARC_BREAKING_POINT>
<ARC_CLEANUP>Cleanup text here.</ARC_CLEANUP>
<ARC_WRAPUP>Wrap up text here.</ARC_WRAPUP>
<STORY>Your story text for the first scene here.</STORY>
<CHOICES>1. First choice.||2. Second choice. <DRAWING>Draw the magic key!</DRAWING>||3. Third choice.</CHOICES>`

// ContinuationFormat is the exact output grammar requested on every later turn.
const ContinuationFormat = `Format your response EXACTLY like this:
<STORY>Your continuing story text here.</STORY>
<CHOICES>1. First choice.||2. Second choice. <DRAWING>Draw what you see through the periscope!</DRAWING>||3. Third choice.</CHOICES>`

const initialPromptTemplate = `You are an AI storyteller for a child aged %s. The theme is %s.
First, create a 5-part story arc. Each part should be 50-70 words.
1. SET THE SCENE: Introduce the world and character.
2. RUIN THINGS: Introduce a problem or conflict.
3. THE BREAKING POINT: The problem gets worse, a moment of crisis.
4. CLEAN UP THE MESS: The hero starts to solve the problem.
5. WRAP IT UP: The resolution and happy ending.

Then, based on the "SET THE SCENE" part of the arc, write an exciting first paragraph for the story.
Finally, create three equally tempting and creative choices for the player. Make the choices sound really fun. %s

%s`

// Initial builds the first-turn prompt: arc, opening paragraph and three choices.
func Initial(ageGroup adventure.AgeGroup, theme adventure.Theme) string {
	return fmt.Sprintf(initialPromptTemplate, ageGroup, theme, DrawingInstruction, InitialFormat)
}

// ArcSummary restates the arc for a continuation prompt.
func ArcSummary(arc adventure.StoryArc) string {
	var sb strings.Builder
	sb.WriteString("Here is the overall story plan we are following:\n")
	sb.WriteString("- Scene: " + arc.Scene + "\n")
	sb.WriteString("- Conflict: " + arc.Ruin + "\n")
	sb.WriteString("- Crisis: " + arc.BreakingPoint + "\n")
	sb.WriteString("- Solution: " + arc.Cleanup + "\n")
	sb.WriteString("- Ending: " + arc.WrapUp)
	return sb.String()
}

// InitialImage describes the first illustration.
func InitialImage(theme adventure.Theme, ageGroup adventure.AgeGroup, storyText string) string {
	return fmt.Sprintf("A vibrant, colorful, and friendly cartoon scene for a %s story for a child aged %s. The scene should illustrate: %s", theme, ageGroup, storyText)
}

// NextImage describes a fresh illustration for a continuation.
func NextImage(storyText string) string {
	return "A vibrant, colorful, and friendly cartoon scene illustrating: " + storyText
}

// ImageEdit instructs the image model to merge the reader's drawing into the scene.
func ImageEdit(storyText string) string {
	return fmt.Sprintf(`Incorporate the user's drawing (on the transparent layer) into a new scene that illustrates the following story: "%s". Keep the art style consistent.`, storyText)
}
