// Package parser reads the tagged text returned by the story model.
//
// The model is asked to wrap each section in a fixed tag pair. Parsing never
// fails: a missing or malformed section falls back to a default, and callers
// decide whether the result is usable.
package parser

import (
	"regexp"
	"strings"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// Tag names shared with the prompt builder. They are case-sensitive.
const (
	TagStory         = "STORY"
	TagChoices       = "CHOICES"
	TagDrawing       = "DRAWING"
	TagEnding        = "ENDING"
	TagArcScene      = "ARC_SCENE"
	TagArcRuin       = "ARC_RUIN"
	TagArcBreaking   = "ARC_BREAKING_POINT"
	TagArcCleanup    = "ARC_CLEANUP"
	TagArcWrapUp     = "ARC_WRAPUP"
	ChoiceSeparator  = "||"
	EndingMarker     = "<" + TagEnding + ">"
	FallbackStory    = "The storyteller seems to be quiet... maybe try again?"
	FallbackScene    = "Once upon a time..."
	FallbackRuin     = "But then, something went wrong."
	FallbackBreaking = "Everything seemed lost."
	FallbackCleanup  = "But our hero had a plan."
	FallbackWrapUp   = "And they all lived happily ever after."
)

var (
	storyRe     = tagPattern(TagStory)
	choicesRe   = tagPattern(TagChoices)
	drawingRe   = tagPattern(TagDrawing)
	enumPrefix  = regexp.MustCompile(`^\d+\.\s*`)
	arcSections = []struct {
		tag      string
		re       *regexp.Regexp
		fallback string
		set      func(*adventure.StoryArc, string)
	}{
		{TagArcScene, tagPattern(TagArcScene), FallbackScene, func(a *adventure.StoryArc, s string) { a.Scene = s }},
		{TagArcRuin, tagPattern(TagArcRuin), FallbackRuin, func(a *adventure.StoryArc, s string) { a.Ruin = s }},
		{TagArcBreaking, tagPattern(TagArcBreaking), FallbackBreaking, func(a *adventure.StoryArc, s string) { a.BreakingPoint = s }},
		{TagArcCleanup, tagPattern(TagArcCleanup), FallbackCleanup, func(a *adventure.StoryArc, s string) { a.Cleanup = s }},
		{TagArcWrapUp, tagPattern(TagArcWrapUp), FallbackWrapUp, func(a *adventure.StoryArc, s string) { a.WrapUp = s }},
	}
)

// tagPattern matches the first <TAG>...</TAG> run, across newlines, shortest body.
func tagPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
}

// Result is the story portion of a model response.
type Result struct {
	StoryText string
	Choices   []adventure.Choice
	IsEnding  bool
}

// Parse extracts the story text, choices and ending flag.
// A response with no surviving choices is an ending even without the marker.
func Parse(text string) Result {
	storyText := FallbackStory
	if m := storyRe.FindStringSubmatch(text); m != nil {
		storyText = strings.TrimSpace(m[1])
	}

	var choicesText string
	if m := choicesRe.FindStringSubmatch(text); m != nil {
		choicesText = strings.TrimSpace(m[1])
	}

	choices := ParseChoices(choicesText)
	isEnding := strings.Contains(text, EndingMarker) || len(choices) == 0

	return Result{
		StoryText: storyText,
		Choices:   choices,
		IsEnding:  isEnding,
	}
}

// ParseChoices splits the body of a CHOICES tag into choices.
func ParseChoices(body string) []adventure.Choice {
	choices := make([]adventure.Choice, 0, 3)
	if body == "" {
		return choices
	}

	for _, raw := range strings.Split(body, ChoiceSeparator) {
		candidate := strings.TrimSpace(enumPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
		if candidate == "" {
			continue
		}
		choices = append(choices, parseChoice(candidate))
	}
	return choices
}

func parseChoice(candidate string) adventure.Choice {
	m := drawingRe.FindStringSubmatchIndex(candidate)
	if m == nil {
		return adventure.Choice{Text: candidate}
	}

	// Drop the first drawing tag from the visible text whether or not it has content.
	visible := strings.TrimSpace(candidate[:m[0]] + candidate[m[1]:])
	prompt := strings.TrimSpace(candidate[m[2]:m[3]])
	if prompt == "" {
		return adventure.Choice{Text: visible}
	}
	return adventure.Choice{Text: visible, DrawingPrompt: &prompt}
}

// ParseArc extracts the five arc sections. Missing sections take their default
// sentence and their tag names are returned in arc order.
func ParseArc(text string) (adventure.StoryArc, []string) {
	var arc adventure.StoryArc
	var missing []string

	for _, section := range arcSections {
		value := section.fallback
		if m := section.re.FindStringSubmatch(text); m != nil {
			value = strings.TrimSpace(m[1])
		} else {
			missing = append(missing, section.tag)
		}
		section.set(&arc, value)
	}
	return arc, missing
}
