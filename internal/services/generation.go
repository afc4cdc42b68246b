package services

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without a usable payload.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// TextGenerator sends one prompt and returns the full raw response text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator creates a fresh scene image from a prompt. The result is JPEG or PNG bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ImageEditor merges an overlay drawing (PNG, transparent background) into a base
// scene image (JPEG) following an instruction.
type ImageEditor interface {
	EditImage(ctx context.Context, base []byte, overlay []byte, instruction string) ([]byte, error)
}

// Narrator turns story text into spoken audio. A nil result with a nil error
// means narration is unavailable, which is not a failure.
type Narrator interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
