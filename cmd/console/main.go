package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	// ResumeID continues an existing adventure instead of creating one.
	ResumeID uuid.UUID
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nUsage: %s [adventure-id]\n", err, os.Args[0])
		os.Exit(1)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not reach the story API at %s. Start it with: go run ./cmd/api\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads API_BASE_URL and CONSOLE_TIMEOUT, plus an optional adventure id argument.
func loadConfig(args []string) (*ConsoleConfig, error) {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
	}

	// Story, image and narration generation run back to back.
	timeout, err := time.ParseDuration(getEnv("CONSOLE_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONSOLE_TIMEOUT: %w", err)
	}
	cfg.Timeout = timeout

	switch len(args) {
	case 0:
	case 1:
		id, err := uuid.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid adventure id %q: %w", args[0], err)
		}
		cfg.ResumeID = id
	default:
		return nil, fmt.Errorf("expected at most one argument, got %d", len(args))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
