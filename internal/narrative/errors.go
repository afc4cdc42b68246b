package narrative

import (
	"errors"
	"fmt"
)

// Stages a generation can fail at.
const (
	StageText      = "text"
	StageParse     = "parse"
	StageImage     = "image"
	StageImageEdit = "image_edit"
	StageDrawing   = "drawing"
)

// ErrGeneration matches every *GenerationError with errors.Is.
var ErrGeneration = errors.New("story generation failed")

// GenerationError reports which required step produced no usable result.
// There is no automatic retry; the reader re-triggers the action.
type GenerationError struct {
	Stage string
	Err   error
}

func newGenerationError(stage string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s at %s stage: %v", ErrGeneration, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
