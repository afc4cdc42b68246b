package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	DefaultElevenLabsVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultElevenLabsModel   = "eleven_multilingual_v2"
)

// ElevenLabsService narrates story text. Without an API key it reports
// narration as unavailable instead of failing.
type ElevenLabsService struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Narrator = (*ElevenLabsService)(nil)

type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ElevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings ElevenLabsVoiceSettings `json:"voice_settings"`
}

func NewElevenLabsService(apiKey, voiceID string, logger *slog.Logger) *ElevenLabsService {
	if voiceID == "" {
		voiceID = DefaultElevenLabsVoiceID
	}
	if apiKey == "" {
		logger.Warn("ELEVENLABS_API_KEY not set, narration disabled")
	}
	return &ElevenLabsService{
		apiKey:  apiKey,
		voiceID: voiceID,
		baseURL: elevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Enabled reports whether an API key is configured.
func (e *ElevenLabsService) Enabled() bool {
	return e.apiKey != ""
}

func (e *ElevenLabsService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !e.Enabled() || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	reqBody, err := json.Marshal(ElevenLabsRequest{
		Text:    text,
		ModelID: DefaultElevenLabsModel,
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.3,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ElevenLabs API failed with status %d: %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	e.logger.Debug("Narration generated", "bytes", len(body))
	return body, nil
}
