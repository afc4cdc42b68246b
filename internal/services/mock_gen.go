package services

import (
	"context"
	"sync"
)

// DefaultMockStory is what MockGenAPI returns from GenerateText when no func is set.
const DefaultMockStory = `<ARC_SCENE>A small fox lives in a sunny meadow.</ARC_SCENE>
<ARC_RUIN>A storm blows the fox's den away.</ARC_RUIN>
<ARC_BREAKING_POINT>Night falls and the fox is lost.</ARC_BREAKING_POINT>
<ARC_CLEANUP>Friendly fireflies light the way home.</ARC_CLEANUP>
<ARC_WRAPUP>The fox builds a cozy new den with friends.</ARC_WRAPUP>
<STORY>Once upon a time, a little fox named Pip napped in a sunny meadow.</STORY>
<CHOICES>1. Chase a butterfly.||2. Visit the old oak. <DRAWING>Draw the old oak tree!</DRAWING>||3. Splash in the brook.</CHOICES>`

// MockGenAPI is a mock implementation of every generation collaborator for testing
type MockGenAPI struct {
	GenerateTextFunc  func(ctx context.Context, prompt string) (string, error)
	GenerateImageFunc func(ctx context.Context, prompt string) ([]byte, error)
	EditImageFunc     func(ctx context.Context, base []byte, overlay []byte, instruction string) ([]byte, error)
	SynthesizeFunc    func(ctx context.Context, text string) ([]byte, error)

	// Track calls for testing
	GenerateTextCalls  []string
	GenerateImageCalls []string
	EditImageCalls     []EditImageCall
	SynthesizeCalls    []string

	mu sync.Mutex // protects all fields above
}

type EditImageCall struct {
	Base        []byte
	Overlay     []byte
	Instruction string
}

var (
	_ TextGenerator  = (*MockGenAPI)(nil)
	_ ImageGenerator = (*MockGenAPI)(nil)
	_ ImageEditor    = (*MockGenAPI)(nil)
	_ Narrator       = (*MockGenAPI)(nil)
)

// NewMockGenAPI creates a new mock generation service
func NewMockGenAPI() *MockGenAPI {
	return &MockGenAPI{
		GenerateTextCalls:  make([]string, 0),
		GenerateImageCalls: make([]string, 0),
		EditImageCalls:     make([]EditImageCall, 0),
		SynthesizeCalls:    make([]string, 0),
	}
}

// GenerateText mocks text generation
func (m *MockGenAPI) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateTextCalls = append(m.GenerateTextCalls, prompt)
	fn := m.GenerateTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return DefaultMockStory, nil
}

// GenerateImage mocks image generation
func (m *MockGenAPI) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	m.mu.Lock()
	m.GenerateImageCalls = append(m.GenerateImageCalls, prompt)
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return []byte("mock-image"), nil
}

// EditImage mocks layered image editing
func (m *MockGenAPI) EditImage(ctx context.Context, base []byte, overlay []byte, instruction string) ([]byte, error) {
	m.mu.Lock()
	m.EditImageCalls = append(m.EditImageCalls, EditImageCall{Base: base, Overlay: overlay, Instruction: instruction})
	fn := m.EditImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, base, overlay, instruction)
	}
	return []byte("mock-edited-image"), nil
}

// Synthesize mocks narration
func (m *MockGenAPI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.SynthesizeCalls = append(m.SynthesizeCalls, text)
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return []byte("mock-audio"), nil
}

// Reset clears all tracked calls
func (m *MockGenAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTextCalls = m.GenerateTextCalls[:0]
	m.GenerateImageCalls = m.GenerateImageCalls[:0]
	m.EditImageCalls = m.EditImageCalls[:0]
	m.SynthesizeCalls = m.SynthesizeCalls[:0]
}
