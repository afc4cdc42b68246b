package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiTextModel  = "gemini-2.5-flash"
	DefaultGeminiImageModel = "gemini-2.5-flash-image-preview"
)

// GeminiService generates story text and merges drawings into scene images.
type GeminiService struct {
	client     *genai.Client
	textModel  *genai.GenerativeModel
	imageModel *genai.GenerativeModel
	logger     *slog.Logger
}

var (
	_ TextGenerator = (*GeminiService)(nil)
	_ ImageEditor   = (*GeminiService)(nil)
)

// NewGeminiService opens a client for the given API key.
func NewGeminiService(ctx context.Context, apiKey, textModel, imageModel string, logger *slog.Logger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if textModel == "" {
		textModel = DefaultGeminiTextModel
	}
	if imageModel == "" {
		imageModel = DefaultGeminiImageModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		client:     client,
		textModel:  client.GenerativeModel(textModel),
		imageModel: client.GenerativeModel(imageModel),
		logger:     logger,
	}, nil
}

// Close releases the underlying client.
func (g *GeminiService) Close() error {
	return g.client.Close()
}

func (g *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.textModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug("Gemini text generated", "chars", len(text))
	return text, nil
}

func (g *GeminiService) EditImage(ctx context.Context, base []byte, overlay []byte, instruction string) ([]byte, error) {
	resp, err := g.imageModel.GenerateContent(ctx,
		genai.ImageData(imageFormat(base), base),
		genai.ImageData("png", overlay),
		genai.Text(instruction),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini image edit: %w", err)
	}

	img := responseImage(resp)
	if len(img) == 0 {
		return nil, ErrEmptyResponse
	}
	g.logger.Debug("Gemini image edited", "bytes", len(img))
	return img, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// responseImage returns the first inline image of the first candidate.
func responseImage(resp *genai.GenerateContentResponse) []byte {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if b, ok := part.(genai.Blob); ok && strings.HasPrefix(b.MIMEType, "image/") && len(b.Data) > 0 {
			return b.Data
		}
	}
	return nil
}

// imageFormat sniffs the genai image format ("png", "jpeg", ...) of a scene.
// Unrecognised bytes are sent as png, the format scene images are generated in.
func imageFormat(data []byte) string {
	format, ok := strings.CutPrefix(http.DetectContentType(data), "image/")
	if !ok {
		return "png"
	}
	return format
}
