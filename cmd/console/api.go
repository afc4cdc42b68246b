package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// AdventureView mirrors the API's adventure response.
type AdventureView struct {
	Adventure   adventure.Adventure  `json:"adventure"`
	Screen      adventure.Screen     `json:"screen"`
	CurrentNode *adventure.StoryNode `json:"current_node,omitempty"`
	TurnCount   int                  `json:"turn_count"`
	MaxTurns    int                  `json:"max_turns"`
}

type Options struct {
	AgeGroups []adventure.AgeGroup `json:"age_groups"`
	Themes    []adventure.Theme    `json:"themes"`
	MaxTurns  int                  `json:"max_turns"`
}

type settingsRequest struct {
	AgeGroup *string `json:"age_group,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}

type choiceRequest struct {
	Choice  string `json:"choice"`
	Drawing string `json:"drawing,omitempty"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// doJSON sends body (if any) and decodes the response into out when the
// status matches want.
func doJSON(client *http.Client, method, url string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return errors.New(errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func getOptions(client *http.Client, baseURL string) (*Options, error) {
	var opts Options
	if err := doJSON(client, http.MethodGet, baseURL+"/v1/options", nil, http.StatusOK, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

func createAdventure(client *http.Client, baseURL string) (*AdventureView, error) {
	var view AdventureView
	if err := doJSON(client, http.MethodPost, baseURL+"/v1/adventures", nil, http.StatusCreated, &view); err != nil {
		return nil, fmt.Errorf("failed to create adventure: %w", err)
	}
	return &view, nil
}

func updateSettings(client *http.Client, baseURL string, id uuid.UUID, ageGroup, theme string) (*AdventureView, error) {
	req := settingsRequest{}
	if ageGroup != "" {
		req.AgeGroup = &ageGroup
	}
	if theme != "" {
		req.Theme = &theme
	}
	var view AdventureView
	if err := doJSON(client, http.MethodPatch, fmt.Sprintf("%s/v1/adventures/%s", baseURL, id), req, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func getAdventure(client *http.Client, baseURL string, id uuid.UUID) (*AdventureView, error) {
	var view AdventureView
	if err := doJSON(client, http.MethodGet, fmt.Sprintf("%s/v1/adventures/%s", baseURL, id), nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func startAdventure(client *http.Client, baseURL string, id uuid.UUID) (*AdventureView, error) {
	var view AdventureView
	if err := doJSON(client, http.MethodPost, fmt.Sprintf("%s/v1/adventures/%s/start", baseURL, id), nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func chooseNext(client *http.Client, baseURL string, id uuid.UUID, choice, drawing string) (*AdventureView, error) {
	var view AdventureView
	req := choiceRequest{Choice: choice, Drawing: drawing}
	if err := doJSON(client, http.MethodPost, fmt.Sprintf("%s/v1/adventures/%s/choices", baseURL, id), req, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func resetAdventure(client *http.Client, baseURL string, id uuid.UUID) (*AdventureView, error) {
	var view AdventureView
	if err := doJSON(client, http.MethodPost, fmt.Sprintf("%s/v1/adventures/%s/reset", baseURL, id), nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// loadDrawing reads a PNG from disk and returns it as a data URL.
func loadDrawing(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read drawing: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "", fmt.Errorf("%s is not a PNG file", path)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
