package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGenerationStarted   EventType = "generation.started"
	EventTypeGenerationCompleted EventType = "generation.completed"
	EventTypeGenerationFailed    EventType = "generation.failed"
	EventTypeAdventureReset      EventType = "adventure.reset"
)

// Generation kinds carried in event data.
const (
	KindStart  = "start"
	KindChoice = "choice"
)

// Event represents a generic event structure
type Event struct {
	Type        EventType      `json:"type"`
	AdventureID string         `json:"adventure_id"`
	Data        map[string]any `json:"data,omitempty"`
}

// Publisher announces adventure lifecycle events. Publishing is best effort:
// callers log a returned error and carry on.
type Publisher interface {
	PublishGenerationStarted(ctx context.Context, adventureID uuid.UUID, kind string) error
	PublishGenerationCompleted(ctx context.Context, adventureID uuid.UUID, kind string, nodeID string, turn int, isEnding bool) error
	PublishGenerationFailed(ctx context.Context, adventureID uuid.UUID, kind string, stage string, message string) error
	PublishAdventureReset(ctx context.Context, adventureID uuid.UUID, reason string) error
}

// Channel is the pub/sub channel for one adventure.
func Channel(adventureID uuid.UUID) string {
	return fmt.Sprintf("adventure-events:%s", adventureID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Subscribe opens a subscription to one adventure's channel. The caller closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, adventureID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(adventureID))
}

func (b *Broadcaster) PublishGenerationStarted(ctx context.Context, adventureID uuid.UUID, kind string) error {
	return b.publish(ctx, Event{
		Type:        EventTypeGenerationStarted,
		AdventureID: adventureID.String(),
		Data: map[string]any{
			"kind": kind,
		},
	})
}

func (b *Broadcaster) PublishGenerationCompleted(ctx context.Context, adventureID uuid.UUID, kind string, nodeID string, turn int, isEnding bool) error {
	return b.publish(ctx, Event{
		Type:        EventTypeGenerationCompleted,
		AdventureID: adventureID.String(),
		Data: map[string]any{
			"kind":      kind,
			"node_id":   nodeID,
			"turn":      turn,
			"is_ending": isEnding,
		},
	})
}

func (b *Broadcaster) PublishGenerationFailed(ctx context.Context, adventureID uuid.UUID, kind string, stage string, message string) error {
	return b.publish(ctx, Event{
		Type:        EventTypeGenerationFailed,
		AdventureID: adventureID.String(),
		Data: map[string]any{
			"kind":  kind,
			"stage": stage,
			"error": message,
		},
	})
}

func (b *Broadcaster) PublishAdventureReset(ctx context.Context, adventureID uuid.UUID, reason string) error {
	return b.publish(ctx, Event{
		Type:        EventTypeAdventureReset,
		AdventureID: adventureID.String(),
		Data: map[string]any{
			"reason": reason,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	id, err := uuid.Parse(event.AdventureID)
	if err != nil {
		return fmt.Errorf("invalid adventure id: %w", err)
	}
	channel := Channel(id)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", event.Type)
	return nil
}

// NopPublisher drops every event. It is used when no Redis is configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishGenerationStarted(context.Context, uuid.UUID, string) error { return nil }
func (NopPublisher) PublishGenerationCompleted(context.Context, uuid.UUID, string, string, int, bool) error {
	return nil
}
func (NopPublisher) PublishGenerationFailed(context.Context, uuid.UUID, string, string, string) error {
	return nil
}
func (NopPublisher) PublishAdventureReset(context.Context, uuid.UUID, string) error { return nil }
