package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAITextModel  = "gpt-4o-mini"
	DefaultOpenAIImageModel = openai.CreateImageModelDallE3

	DefaultOpenAITemperature = 0.8
)

// OpenAIService generates scene images and can stand in as the text provider.
type OpenAIService struct {
	client     *openai.Client
	textModel  string
	imageModel string
	logger     *slog.Logger
}

var (
	_ TextGenerator  = (*OpenAIService)(nil)
	_ ImageGenerator = (*OpenAIService)(nil)
)

// NewOpenAIService creates a client. baseURL may be empty for the public API.
func NewOpenAIService(apiKey, baseURL, textModel, imageModel string, logger *slog.Logger) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if textModel == "" {
		textModel = DefaultOpenAITextModel
	}
	if imageModel == "" {
		imageModel = DefaultOpenAIImageModel
	}

	return &OpenAIService{
		client:     openai.NewClientWithConfig(config),
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

func (o *OpenAIService) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.textModel,
		Temperature: DefaultOpenAITemperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	o.logger.Debug("OpenAI text generated", "model", o.textModel, "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyResponse
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}
	o.logger.Debug("OpenAI image generated", "model", o.imageModel, "bytes", len(img))
	return img, nil
}
