// Package narrative sequences the outbound calls that produce each story node.
//
// Every call runs text, then image, then narration, one after another. A
// failed text or image step aborts the call with a *GenerationError.
// Narration is best effort and never fails a call. The orchestrator does not
// touch the Adventure; callers apply the returned node themselves.
package narrative

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/story-adventure/internal/metrics"
	"github.com/jwebster45206/story-adventure/internal/services"
	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/parser"
	"github.com/jwebster45206/story-adventure/pkg/prompts"
	"github.com/jwebster45206/story-adventure/pkg/textfilter"
)

const (
	kindInitial = "initial"
	kindNext    = "next"
)

// Orchestrator drives initial and continuation generation.
type Orchestrator struct {
	text     services.TextGenerator
	images   services.ImageGenerator
	editor   services.ImageEditor
	narrator services.Narrator
	filter   *textfilter.Filter
	logger   *slog.Logger
}

// New creates an orchestrator. narrator may be nil, which disables narration.
func New(text services.TextGenerator, images services.ImageGenerator, editor services.ImageEditor, narrator services.Narrator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		text:     text,
		images:   images,
		editor:   editor,
		narrator: narrator,
		filter:   textfilter.New(),
		logger:   logger,
	}
}

// InitialResult is the first node of an adventure and the arc that guides the rest.
type InitialResult struct {
	Node adventure.StoryNode
	Arc  adventure.StoryArc
}

// NextRequest carries everything a continuation needs. Drawing is optional and
// may be a data URL or bare base64 PNG.
type NextRequest struct {
	History            string
	CurrentImageBase64 string
	UserChoice         string
	Drawing            string
	Arc                adventure.StoryArc
	TurnCount          int
}

// NextRequestFor builds a continuation request from the adventure's current state.
func NextRequestFor(a adventure.Adventure, choice, drawing string) (NextRequest, error) {
	current, ok := a.CurrentNode()
	if !ok {
		return NextRequest{}, &adventure.ConsistencyError{CurrentNodeID: a.CurrentNodeID}
	}
	if a.StoryArc == nil {
		return NextRequest{}, fmt.Errorf("adventure %s has no story arc", a.ID)
	}
	return NextRequest{
		History:            a.History(),
		CurrentImageBase64: current.ImageBase64,
		UserChoice:         choice,
		Drawing:            drawing,
		Arc:                *a.StoryArc,
		TurnCount:          a.TurnCount(),
	}, nil
}

// GenerateInitialStory creates the arc and the opening node.
func (o *Orchestrator) GenerateInitialStory(ctx context.Context, ageGroup adventure.AgeGroup, theme adventure.Theme) (result InitialResult, err error) {
	defer func() { o.record(kindInitial, err) }()

	raw, err := o.generateText(ctx, prompts.Initial(ageGroup, theme))
	if err != nil {
		return InitialResult{}, err
	}

	arc, missing := parser.ParseArc(raw)
	if len(missing) > 0 {
		o.logger.Warn("Story arc sections missing, using defaults", "missing", missing)
	}
	parsed := parser.Parse(raw)
	if parsed.StoryText == "" || len(parsed.Choices) == 0 {
		return InitialResult{}, newGenerationError(StageParse,
			fmt.Errorf("parsed story text or choices are empty (story %d chars, %d choices)", len(parsed.StoryText), len(parsed.Choices)))
	}

	node := o.filter.CleanNode(adventure.NewStoryNode(nil, parsed.StoryText, "", parsed.Choices, parsed.IsEnding, nil))
	arc = o.filter.CleanArc(arc)

	img, err := o.generateImage(ctx, prompts.InitialImage(theme, ageGroup, node.StoryText))
	if err != nil {
		return InitialResult{}, err
	}
	node.ImageBase64 = base64.StdEncoding.EncodeToString(img)
	node.AudioBase64 = o.narrate(ctx, node.StoryText)

	o.logger.Info("Initial story generated",
		"age_group", ageGroup,
		"theme", theme,
		"node_id", node.ID,
		"choices", len(node.Choices),
		"has_audio", node.AudioBase64 != nil)
	return InitialResult{Node: node, Arc: arc}, nil
}

// GenerateNextStoryNode continues the story from the reader's choice. When a
// drawing is supplied the current scene is edited to include it; otherwise a
// fresh scene is generated.
func (o *Orchestrator) GenerateNextStoryNode(ctx context.Context, req NextRequest) (node adventure.StoryNode, err error) {
	defer func() { o.record(kindNext, err) }()

	var drawing []byte
	if strings.TrimSpace(req.Drawing) != "" {
		drawing, err = DecodeDrawing(req.Drawing)
		if err != nil {
			return adventure.StoryNode{}, newGenerationError(StageDrawing, err)
		}
	}

	prompt, err := prompts.New().
		WithArc(req.Arc).
		WithHistory(req.History).
		WithUserChoice(req.UserChoice).
		WithTurn(req.TurnCount).
		WithDrawing(drawing != nil).
		Build()
	if err != nil {
		return adventure.StoryNode{}, fmt.Errorf("failed to build continuation prompt: %w", err)
	}

	raw, err := o.generateText(ctx, prompt)
	if err != nil {
		return adventure.StoryNode{}, err
	}

	parsed := parser.Parse(raw)
	if parsed.StoryText == "" {
		return adventure.StoryNode{}, newGenerationError(StageParse, errors.New("parsed next story text is empty"))
	}
	node = o.filter.CleanNode(adventure.NewStoryNode(nil, parsed.StoryText, "", parsed.Choices, parsed.IsEnding, nil))

	var img []byte
	if drawing != nil {
		img, err = o.editScene(ctx, req.CurrentImageBase64, drawing, node.StoryText)
	} else {
		img, err = o.generateImage(ctx, prompts.NextImage(node.StoryText))
	}
	if err != nil {
		return adventure.StoryNode{}, err
	}
	node.ImageBase64 = base64.StdEncoding.EncodeToString(img)
	node.AudioBase64 = o.narrate(ctx, node.StoryText)

	o.logger.Info("Next story node generated",
		"turn", req.TurnCount+1,
		"node_id", node.ID,
		"is_ending", node.IsEnding,
		"with_drawing", drawing != nil,
		"has_audio", node.AudioBase64 != nil)
	return node, nil
}

func (o *Orchestrator) generateText(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	raw, err := o.text.GenerateText(ctx, prompt)
	metrics.ObserveStage(StageText, started)
	if err != nil {
		return "", newGenerationError(StageText, err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", newGenerationError(StageText, services.ErrEmptyResponse)
	}
	return raw, nil
}

func (o *Orchestrator) generateImage(ctx context.Context, prompt string) ([]byte, error) {
	started := time.Now()
	img, err := o.images.GenerateImage(ctx, prompt)
	metrics.ObserveStage(StageImage, started)
	if err != nil {
		return nil, newGenerationError(StageImage, err)
	}
	if len(img) == 0 {
		return nil, newGenerationError(StageImage, services.ErrEmptyResponse)
	}
	return img, nil
}

func (o *Orchestrator) editScene(ctx context.Context, currentImageBase64 string, drawing []byte, storyText string) ([]byte, error) {
	base, err := base64.StdEncoding.DecodeString(currentImageBase64)
	if err != nil || len(base) == 0 {
		// Without a scene to layer onto, draw a fresh one instead.
		o.logger.Warn("Current scene image unavailable for edit, generating a new image", "error", err)
		return o.generateImage(ctx, prompts.NextImage(storyText))
	}

	started := time.Now()
	img, err := o.editor.EditImage(ctx, base, drawing, prompts.ImageEdit(storyText))
	metrics.ObserveStage(StageImageEdit, started)
	if err != nil {
		return nil, newGenerationError(StageImageEdit, err)
	}
	if len(img) == 0 {
		return nil, newGenerationError(StageImageEdit, services.ErrEmptyResponse)
	}
	return img, nil
}

// narrate returns base64 audio or nil. Failures are logged and swallowed.
func (o *Orchestrator) narrate(ctx context.Context, text string) *string {
	if o.narrator == nil {
		metrics.ObserveNarrationUnavailable()
		return nil
	}

	started := time.Now()
	audio, err := o.narrator.Synthesize(ctx, text)
	metrics.ObserveStage("narration", started)
	if err != nil {
		o.logger.Warn("Narration failed, continuing without audio", "error", err)
	}
	if err != nil || len(audio) == 0 {
		metrics.ObserveNarrationUnavailable()
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(audio)
	return &encoded
}

func (o *Orchestrator) record(kind string, err error) {
	metrics.ObserveGeneration(kind, err == nil)
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		metrics.ObserveFailure(genErr.Stage)
		o.logger.Error("Story generation failed", "kind", kind, "stage", genErr.Stage, "error", genErr.Err)
	}
}

// DecodeDrawing accepts a data URL or bare base64 and returns the image bytes.
func DecodeDrawing(drawing string) ([]byte, error) {
	payload := strings.TrimSpace(drawing)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, errors.New("drawing data URL has no payload")
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode drawing: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("drawing is empty")
	}
	return data, nil
}
