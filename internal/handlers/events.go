package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-adventure/internal/logger"
	"github.com/jwebster45206/story-adventure/internal/services/events"
)

const (
	eventsPathPrefix = "/v1/events/adventures/"

	// keepaliveInterval is how often an idle stream sends a comment line.
	keepaliveInterval = 30 * time.Second

	// reconnectDelay is the retry hint sent to EventSource clients.
	reconnectDelay = 3 * time.Second
)

// EventsHandler streams an adventure's generation events as Server-Sent Events
type EventsHandler struct {
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

// NewEventsHandler creates a new events handler. A nil broadcaster disables streaming.
func NewEventsHandler(broadcaster *events.Broadcaster, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ServeHTTP handles GET /v1/events/adventures/{id}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	rawID, ok := strings.CutPrefix(r.URL.Path, eventsPathPrefix)
	if !ok || rawID == "" || strings.Contains(rawID, "/") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/adventures/{adventureID}")
		return
	}
	adventureID, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid adventure ID format.")
		return
	}

	if h.broadcaster == nil {
		writeError(w, h.logger, http.StatusNotImplemented, "Live events need the Redis storage backend.")
		return
	}

	log := logger.WithAdventure(h.logger, adventureID.String())
	stream := newEventStream(w, log)

	pubsub := h.broadcaster.Subscribe(r.Context(), adventureID)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("Failed to close event subscription", "error", err)
		}
	}()

	log.Info("Event stream opened", "remote_addr", r.RemoteAddr)
	if err := stream.open(); err != nil {
		log.Warn("Event stream closed before it started", "error", err)
		return
	}
	if err := stream.send("connected", map[string]any{"adventure_id": adventureID.String()}); err != nil {
		return
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	messages := pubsub.Channel()
	for {
		select {
		case <-r.Context().Done():
			log.Info("Event stream closed by client")
			return

		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("Dropping malformed event", "error", err, "payload", msg.Payload)
				continue
			}
			if err := stream.send(string(event.Type), event.Data); err != nil {
				return
			}

		case <-keepalive.C:
			if err := stream.comment("keepalive"); err != nil {
				return
			}
		}
	}
}

// eventStream writes the text/event-stream framing and flushes after every frame.
type eventStream struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	logger *slog.Logger
}

func newEventStream(w http.ResponseWriter, logger *slog.Logger) *eventStream {
	return &eventStream{w: w, rc: http.NewResponseController(w), logger: logger}
}

func (s *eventStream) open() error {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	s.w.WriteHeader(http.StatusOK)

	return s.write(fmt.Sprintf("retry: %d\n\n", reconnectDelay.Milliseconds()))
}

func (s *eventStream) send(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Failed to marshal event data", "event", eventType, "error", err)
		return nil
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload))
}

func (s *eventStream) comment(text string) error {
	return s.write(": " + text + "\n\n")
}

func (s *eventStream) write(frame string) error {
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		s.logger.Warn("Failed to write event frame", "error", err)
		return err
	}
	if err := s.rc.Flush(); err != nil {
		s.logger.Warn("Failed to flush event frame", "error", err)
		return err
	}
	return nil
}
