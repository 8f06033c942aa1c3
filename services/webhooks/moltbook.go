package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
)

var ErrMissingEvent = errors.New("webhook payload missing event")

// MoltbookEvent is the envelope Moltbook posts: an event name plus an
// event-specific data document.
type MoltbookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type EventHandler func(ctx context.Context, event MoltbookEvent) error

// MoltbookProcessor routes Moltbook events to handlers registered by name.
// Events without a handler are accepted and only logged.
type MoltbookProcessor struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
	logger   *logging.Service
}

func NewMoltbookProcessor(logger *logging.Service) *MoltbookProcessor {
	return &MoltbookProcessor{
		handlers: make(map[string]EventHandler),
		logger:   logger,
	}
}

// On registers the handler for one event name and replaces any earlier
// one. The service registers none itself; deployments that act on Moltbook
// events add theirs through an fx.Invoke on *MoltbookProcessor.
func (m *MoltbookProcessor) On(event string, handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = handler
}

// Handle satisfies Handler.
func (m *MoltbookProcessor) Handle(ctx context.Context, payload json.RawMessage) error {
	var event MoltbookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("invalid moltbook payload: %w", err)
	}
	event.Event = strings.TrimSpace(event.Event)
	if event.Event == "" {
		return ErrMissingEvent
	}

	m.mu.RLock()
	handler, ok := m.handlers[event.Event]
	m.mu.RUnlock()

	if !ok {
		m.logger.Info("moltbook webhook received", zap.String("event", event.Event))
		return nil
	}

	m.logger.Debug("dispatching moltbook event", zap.String("event", event.Event))
	return handler(ctx, event)
}
