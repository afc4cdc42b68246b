package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-adventure/internal/logger"
	"github.com/jwebster45206/story-adventure/internal/metrics"
	"github.com/jwebster45206/story-adventure/internal/narrative"
	"github.com/jwebster45206/story-adventure/internal/services/events"
	"github.com/jwebster45206/story-adventure/internal/storybook"
	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/prompts"
	"github.com/jwebster45206/story-adventure/pkg/storage"
)

// Messages shown to the reader.
const (
	msgBusy         = "A story is already being written. Please wait!"
	msgStartFailed  = "Oh no! The storyteller got lost. Please try again."
	msgChoiceFailed = "The magic ink seems to have run out. Please try making a choice again!"
	msgInconsistent = "Couldn't find the current part of the story!"
	msgBadDrawing   = "We couldn't read your drawing. Please try drawing it again!"
	msgNotFound     = "Adventure not found"
)

// StoryGenerator produces story nodes. *narrative.Orchestrator implements it.
type StoryGenerator interface {
	GenerateInitialStory(ctx context.Context, ageGroup adventure.AgeGroup, theme adventure.Theme) (narrative.InitialResult, error)
	GenerateNextStoryNode(ctx context.Context, req narrative.NextRequest) (adventure.StoryNode, error)
}

// AdventureView is what the API returns for an adventure.
type AdventureView struct {
	Adventure   adventure.Adventure  `json:"adventure"`
	Screen      adventure.Screen     `json:"screen"`
	CurrentNode *adventure.StoryNode `json:"current_node,omitempty"`
	TurnCount   int                  `json:"turn_count"`
	MaxTurns    int                  `json:"max_turns"`
}

func newAdventureView(a adventure.Adventure, generating bool) AdventureView {
	view := AdventureView{
		Adventure: a,
		Screen:    a.Screen(),
		TurnCount: a.TurnCount(),
		MaxTurns:  prompts.MaxTurns,
	}
	if generating {
		view.Screen = adventure.ScreenLoading
	}
	if node, ok := a.CurrentNode(); ok {
		view.CurrentNode = &node
	}
	return view
}

// SettingsRequest sets the onboarding choices. Omitted fields are left as they are.
type SettingsRequest struct {
	AgeGroup *string `json:"age_group,omitempty"`
	Theme    *string `json:"theme,omitempty"`
}

// ChoiceRequest advances the story. Drawing is an optional PNG data URL.
type ChoiceRequest struct {
	Choice  string `json:"choice"`
	Drawing string `json:"drawing,omitempty"`
}

type AdventureHandler struct {
	storage           storage.Storage
	generator         StoryGenerator
	publisher         events.Publisher
	generationTimeout time.Duration
	logger            *slog.Logger
}

func NewAdventureHandler(store storage.Storage, generator StoryGenerator, publisher events.Publisher, generationTimeout time.Duration, logger *slog.Logger) *AdventureHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AdventureHandler{
		storage:           store,
		generator:         generator,
		publisher:         publisher,
		generationTimeout: generationTimeout,
		logger:            logger,
	}
}

// ServeHTTP routes adventure requests
// Routes:
// POST   /v1/adventures                    - Create adventure
// GET    /v1/adventures/{id}               - Read adventure view
// PATCH  /v1/adventures/{id}               - Update age group / theme
// DELETE /v1/adventures/{id}               - Delete adventure
// POST   /v1/adventures/{id}/start         - Generate the opening
// POST   /v1/adventures/{id}/choices       - Continue from a choice
// POST   /v1/adventures/{id}/reset         - Back to onboarding
// GET    /v1/adventures/{id}/storybook.pdf - Printable storybook
func (h *AdventureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/adventures"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid adventure ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid adventure ID format")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	} else if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case action == "" && r.Method == http.MethodPatch:
		h.handlePatch(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case action == "start" && r.Method == http.MethodPost:
		h.handleStart(w, r, id)
	case action == "choices" && r.Method == http.MethodPost:
		h.handleChoice(w, r, id)
	case action == "reset" && r.Method == http.MethodPost:
		h.handleReset(w, r, id)
	case action == "storybook.pdf" && r.Method == http.MethodGet:
		h.handleStorybook(w, r, id)
	case action == "" || action == "start" || action == "choices" || action == "reset" || action == "storybook.pdf":
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *AdventureHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	a, err := applySettings(*adventure.New(), req)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.SaveAdventure(r.Context(), &a); err != nil {
		h.logger.Error("Failed to save adventure", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save adventure")
		return
	}

	logger.WithAdventure(h.logger, a.ID.String()).Info("Adventure created",
		"age_group", a.AgeGroup,
		"theme", a.Theme)
	writeJSON(w, h.logger, http.StatusCreated, newAdventureView(a, false))
}

func (h *AdventureHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	a, ok := h.load(w, r, id)
	if !ok {
		return
	}
	generating, err := h.storage.IsLocked(r.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to check adventure lock", "adventure_id", id, "error", err)
	}
	writeJSON(w, h.logger, http.StatusOK, newAdventureView(*a, generating))
}

func (h *AdventureHandler) handlePatch(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req SettingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	release, ok := h.acquire(w, r, id)
	if !ok {
		return
	}
	defer release()

	a, ok := h.load(w, r, id)
	if !ok {
		return
	}

	updated, err := applySettings(*a, req)
	if errors.Is(err, adventure.ErrAlreadyStarted) {
		writeError(w, h.logger, http.StatusConflict, "This adventure has already begun. Reset it to pick again!")
		return
	}
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if !h.save(r.Context(), w, &updated) {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newAdventureView(updated, false))
}

func (h *AdventureHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	release, ok := h.acquire(w, r, id)
	if !ok {
		return
	}
	defer release()

	if err := h.storage.DeleteAdventure(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete adventure", "adventure_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete adventure")
		return
	}
	h.logger.Info("Adventure deleted", "adventure_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdventureHandler) handleStart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	log := logger.WithAdventure(h.logger, id.String())

	release, ok := h.acquire(w, r, id)
	if !ok {
		return
	}
	defer release()

	a, ok := h.load(w, r, id)
	if !ok {
		return
	}
	if a.Started() {
		writeError(w, h.logger, http.StatusConflict, "This adventure has already begun!")
		return
	}
	if !a.ReadyToStart() {
		writeError(w, h.logger, http.StatusBadRequest, "Please choose an age group and a theme first.")
		return
	}

	h.publishStarted(r.Context(), id, events.KindStart)

	ctx, cancel := context.WithTimeout(r.Context(), h.generationTimeout)
	defer cancel()

	result, err := h.generator.GenerateInitialStory(ctx, a.AgeGroup, a.Theme)
	if err != nil {
		// The adventure stays in onboarding so the reader can try again.
		log.Error("Failed to generate initial story", "error", err)
		h.publishFailed(r.Context(), id, events.KindStart, err)
		writeError(w, h.logger, http.StatusBadGateway, msgStartFailed)
		return
	}

	started, err := adventure.ApplyInitialNode(*a, result.Node, result.Arc)
	if errors.Is(err, adventure.ErrNotEmpty) {
		writeError(w, h.logger, http.StatusConflict, "This adventure has already begun!")
		return
	}
	if err != nil {
		log.Error("Failed to apply initial node", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to start adventure")
		return
	}

	if !h.save(r.Context(), w, &started) {
		return
	}
	h.publishCompleted(r.Context(), started, events.KindStart)

	log.Info("Adventure started", "node_id", started.CurrentNodeID)
	writeJSON(w, h.logger, http.StatusOK, newAdventureView(started, false))
}

func (h *AdventureHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	log := logger.WithAdventure(h.logger, id.String())

	var req ChoiceRequest
	if err := decodeBody(w, r, &req); err != nil {
		log.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.Choice = strings.TrimSpace(req.Choice)
	if req.Choice == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Please pick a choice to continue.")
		return
	}

	release, ok := h.acquire(w, r, id)
	if !ok {
		return
	}
	defer release()

	a, ok := h.load(w, r, id)
	if !ok {
		return
	}
	if !a.Started() {
		writeError(w, h.logger, http.StatusConflict, "This adventure hasn't started yet!")
		return
	}
	if a.Screen() == adventure.ScreenEnding {
		writeError(w, h.logger, http.StatusConflict, "This story has already ended. Start a new adventure!")
		return
	}

	if err := adventure.Validate(*a); err != nil {
		h.resetInconsistent(r.Context(), w, *a, err)
		return
	}

	next, err := narrative.NextRequestFor(*a, req.Choice, req.Drawing)
	if errors.Is(err, adventure.ErrConsistency) {
		h.resetInconsistent(r.Context(), w, *a, err)
		return
	}
	if err != nil {
		log.Error("Failed to prepare next story request", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to continue adventure")
		return
	}

	h.publishStarted(r.Context(), id, events.KindChoice)

	ctx, cancel := context.WithTimeout(r.Context(), h.generationTimeout)
	defer cancel()

	node, err := h.generator.GenerateNextStoryNode(ctx, next)
	if err != nil {
		// The adventure is left exactly as it was; the reader may choose again.
		log.Error("Failed to generate next story node", "error", err)
		h.publishFailed(r.Context(), id, events.KindChoice, err)
		var genErr *narrative.GenerationError
		if errors.As(err, &genErr) && genErr.Stage == narrative.StageDrawing {
			writeError(w, h.logger, http.StatusBadRequest, msgBadDrawing)
			return
		}
		writeError(w, h.logger, http.StatusBadGateway, msgChoiceFailed)
		return
	}

	advanced, err := adventure.ApplyNextNode(*a, node)
	if errors.Is(err, adventure.ErrConsistency) {
		h.resetInconsistent(r.Context(), w, *a, err)
		return
	}
	if err != nil {
		log.Error("Failed to apply next node", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to continue adventure")
		return
	}

	if !h.save(r.Context(), w, &advanced) {
		return
	}
	h.publishCompleted(r.Context(), advanced, events.KindChoice)

	log.Info("Story advanced",
		"node_id", advanced.CurrentNodeID,
		"turn", advanced.TurnCount(),
		"with_drawing", req.Drawing != "")
	writeJSON(w, h.logger, http.StatusOK, newAdventureView(advanced, false))
}

func (h *AdventureHandler) handleReset(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	release, ok := h.acquire(w, r, id)
	if !ok {
		return
	}
	defer release()

	a, ok := h.load(w, r, id)
	if !ok {
		return
	}

	reset := adventure.Reset(*a)
	if !h.save(r.Context(), w, &reset) {
		return
	}
	metrics.ObserveReset("user")
	if err := h.publisher.PublishAdventureReset(r.Context(), id, "user"); err != nil {
		h.logger.Warn("Failed to publish reset event", "adventure_id", id, "error", err)
	}

	h.logger.Info("Adventure reset", "adventure_id", id)
	writeJSON(w, h.logger, http.StatusOK, newAdventureView(reset, false))
}

func (h *AdventureHandler) handleStorybook(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	a, ok := h.load(w, r, id)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := storybook.Render(&buf, *a)
	if errors.Is(err, storybook.ErrNotStarted) {
		writeError(w, h.logger, http.StatusConflict, "There is no story to print yet!")
		return
	}
	if err != nil {
		h.logger.Error("Failed to render storybook", "adventure_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to render storybook")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="adventure-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("Failed to write storybook", "adventure_id", id, "error", err)
	}
}

// resetInconsistent recovers from a missing active node: the adventure goes
// back to onboarding and the reader is told to start again.
func (h *AdventureHandler) resetInconsistent(ctx context.Context, w http.ResponseWriter, a adventure.Adventure, cause error) {
	h.logger.Error("Adventure state is inconsistent, resetting",
		"adventure_id", a.ID,
		"current_node_id", a.CurrentNodeID,
		"error", cause)

	reset := adventure.Reset(a)
	if !h.save(ctx, w, &reset) {
		return
	}
	metrics.ObserveReset("consistency")
	if err := h.publisher.PublishAdventureReset(ctx, a.ID, "consistency"); err != nil {
		h.logger.Warn("Failed to publish reset event", "adventure_id", a.ID, "error", err)
	}
	writeError(w, h.logger, http.StatusConflict, msgInconsistent)
}

// acquire takes the adventure's generation lock. When it returns false the
// response has already been written.
func (h *AdventureHandler) acquire(w http.ResponseWriter, r *http.Request, id uuid.UUID) (func(), bool) {
	token, ok, err := h.storage.TryLock(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to lock adventure", "adventure_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to lock adventure")
		return nil, false
	}
	if !ok {
		h.logger.Warn("Adventure is busy", "adventure_id", id)
		writeError(w, h.logger, http.StatusConflict, msgBusy)
		return nil, false
	}

	return func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.storage.Unlock(ctx, id, token); err != nil && !errors.Is(err, storage.ErrLockNotHeld) {
			h.logger.Error("Failed to unlock adventure", "adventure_id", id, "error", err)
		}
	}, true
}

// load fetches an adventure. When it returns false the response has already been written.
func (h *AdventureHandler) load(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*adventure.Adventure, bool) {
	a, err := h.storage.LoadAdventure(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load adventure", "adventure_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load adventure")
		return nil, false
	}
	if a == nil {
		writeError(w, h.logger, http.StatusNotFound, msgNotFound)
		return nil, false
	}
	return a, true
}

func (h *AdventureHandler) save(ctx context.Context, w http.ResponseWriter, a *adventure.Adventure) bool {
	if err := h.storage.SaveAdventure(ctx, a); err != nil {
		h.logger.Error("Failed to save adventure", "adventure_id", a.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save adventure")
		return false
	}
	return true
}

func (h *AdventureHandler) publishStarted(ctx context.Context, id uuid.UUID, kind string) {
	if err := h.publisher.PublishGenerationStarted(ctx, id, kind); err != nil {
		h.logger.Warn("Failed to publish generation started", "adventure_id", id, "error", err)
	}
}

func (h *AdventureHandler) publishCompleted(ctx context.Context, a adventure.Adventure, kind string) {
	node, _ := a.CurrentNode()
	if err := h.publisher.PublishGenerationCompleted(ctx, a.ID, kind, node.ID, a.TurnCount(), node.IsEnding); err != nil {
		h.logger.Warn("Failed to publish generation completed", "adventure_id", a.ID, "error", err)
	}
}

func (h *AdventureHandler) publishFailed(ctx context.Context, id uuid.UUID, kind string, cause error) {
	stage := "unknown"
	var genErr *narrative.GenerationError
	if errors.As(cause, &genErr) {
		stage = genErr.Stage
	}
	if err := h.publisher.PublishGenerationFailed(ctx, id, kind, stage, cause.Error()); err != nil {
		h.logger.Warn("Failed to publish generation failed", "adventure_id", id, "error", err)
	}
}

// applySettings validates and applies the onboarding fields that are present.
func applySettings(a adventure.Adventure, req SettingsRequest) (adventure.Adventure, error) {
	var err error
	if req.AgeGroup != nil {
		ag, perr := adventure.ParseAgeGroup(*req.AgeGroup)
		if perr != nil {
			return a, perr
		}
		if a, err = adventure.WithAgeGroup(a, ag); err != nil {
			return a, err
		}
	}
	if req.Theme != nil {
		theme, perr := adventure.ParseTheme(*req.Theme)
		if perr != nil {
			return a, perr
		}
		if a, err = adventure.WithTheme(a, theme); err != nil {
			return a, err
		}
	}
	return a, nil
}
