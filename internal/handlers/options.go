package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/prompts"
)

// OptionsResponse lists what a reader can pick during onboarding.
type OptionsResponse struct {
	AgeGroups []adventure.AgeGroup `json:"age_groups"`
	Themes    []adventure.Theme    `json:"themes"`
	MaxTurns  int                  `json:"max_turns"`
}

type OptionsHandler struct {
	logger *slog.Logger
}

func NewOptionsHandler(logger *slog.Logger) *OptionsHandler {
	return &OptionsHandler{logger: logger}
}

// ServeHTTP handles GET /v1/options
func (h *OptionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, OptionsResponse{
		AgeGroups: adventure.AgeGroups(),
		Themes:    adventure.Themes(),
		MaxTurns:  prompts.MaxTurns,
	})
}
