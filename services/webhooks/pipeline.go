package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
)

const (
	SourceMoltbook = "moltbook"
	SourceUnknown  = "unknown"

	interruptedMessage = "processing interrupted before completion"
)

var (
	ErrInvalidPayload = apperrors.Validation("webhook payload must be valid JSON")
	ErrInvalidStatus  = apperrors.Validation("Invalid status")
)

// Handler processes one webhook payload. A returned error marks the log
// failed with the error text.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Notifier announces successfully handled webhooks.
type Notifier interface {
	NotifyWebhookReceived(ctx context.Context, source string, payload json.RawMessage) bool
}

type Filter struct {
	Status string
	Source string
}

type LogPage struct {
	Webhooks   []Log               `json:"webhooks"`
	Pagination database.Pagination `json:"pagination"`
}

type Pipeline struct {
	gateway  *database.Gateway
	notifier Notifier
	config   *config.WebhookConfig
	logger   *logging.Service
	now      func() time.Time
}

func NewPipeline(gateway *database.Gateway, notifier Notifier, cfg *config.WebhookConfig, logger *logging.Service) *Pipeline {
	return &Pipeline{
		gateway:  gateway,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizePayload validates a raw request body. An empty body becomes an
// empty JSON object.
func NormalizePayload(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, ErrInvalidPayload
	}
	return json.RawMessage(body), nil
}

// Ingest records a webhook that needs no processing. The row is written
// once, already processed.
func (p *Pipeline) Ingest(ctx context.Context, source string, payload json.RawMessage) (*Log, error) {
	now := p.now()
	log := &Log{
		Source:      normalizeSource(source),
		Payload:     payloadText(payload),
		Status:      StatusProcessed,
		ProcessedAt: &now,
	}
	if err := p.gateway.Insert(ctx, log); err != nil {
		return nil, err
	}

	p.logger.Info("webhook received",
		zap.Uint("webhook_id", log.ID),
		zap.String("source", log.Source))
	return log, nil
}

// IngestWithProcessing writes the receipt, runs handler and finalizes the
// row as processed or failed. On handler failure the finalized log is
// returned together with a processing error.
func (p *Pipeline) IngestWithProcessing(ctx context.Context, source string, payload json.RawMessage, handler Handler) (*Log, error) {
	log := &Log{
		Source:  normalizeSource(source),
		Payload: payloadText(payload),
		Status:  StatusReceived,
	}
	if err := p.gateway.Insert(ctx, log); err != nil {
		return nil, err
	}

	logger := p.logger.With(zap.Uint("webhook_id", log.ID), zap.String("source", log.Source))
	logger.Debug("webhook received")

	if handlerErr := runHandler(ctx, handler, payload); handlerErr != nil {
		logger.Error("webhook processing failed", zap.Error(handlerErr))
		if err := p.markFailed(ctx, log, handlerErr.Error()); err != nil {
			return log, err
		}
		return log, apperrors.Processing("failed to process webhook", handlerErr)
	}

	if p.notifier != nil && slices.Contains(p.config.NotifySources, log.Source) {
		if !p.notifier.NotifyWebhookReceived(ctx, log.Source, payload) {
			logger.Debug("webhook notification not delivered")
		}
	}

	if err := p.markProcessed(ctx, log); err != nil {
		return log, err
	}
	logger.Info("webhook processed")
	return log, nil
}

func (p *Pipeline) markProcessed(ctx context.Context, log *Log) error {
	now := p.now()
	if err := p.finalize(ctx, log.ID, map[string]any{
		"status":        StatusProcessed,
		"processed_at":  now,
		"error_message": nil,
	}); err != nil {
		return err
	}
	log.Status = StatusProcessed
	log.ProcessedAt = &now
	log.ErrorMessage = nil
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, log *Log, message string) error {
	if err := p.finalize(ctx, log.ID, map[string]any{
		"status":        StatusFailed,
		"processed_at":  nil,
		"error_message": message,
	}); err != nil {
		return err
	}
	log.Status = StatusFailed
	log.ProcessedAt = nil
	log.ErrorMessage = &message
	return nil
}

// finalize only touches rows still in received, so repeating it after a
// partial failure cannot overwrite an outcome already recorded.
func (p *Pipeline) finalize(ctx context.Context, id uint, values map[string]any) error {
	rows, err := p.gateway.Update(ctx, values, database.Query{
		Model: &Log{},
		Where: "id = ? AND status = ?",
		Args:  []any{id, StatusReceived},
	})
	if err != nil {
		p.logger.Error("failed to finalize webhook", zap.Uint("webhook_id", id), zap.Error(err))
		return err
	}
	if rows == 0 {
		p.logger.Warn("webhook already finalized", zap.Uint("webhook_id", id))
	}
	return nil
}

// ReconcileStale fails every row left in received for longer than
// olderThan and reports how many were swept.
func (p *Pipeline) ReconcileStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := p.now().Add(-olderThan)
	rows, err := p.gateway.Update(ctx, map[string]any{
		"status":        StatusFailed,
		"error_message": interruptedMessage,
	}, database.Query{
		Model: &Log{},
		Where: "status = ? AND created_at < ?",
		Args:  []any{StatusReceived, cutoff},
	})
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		p.logger.Warn("reconciled stale webhooks", zap.Int64("count", rows), zap.Time("cutoff", cutoff))
	}
	return rows, nil
}

func (p *Pipeline) ListLogs(ctx context.Context, filter Filter, page, limit int) (*LogPage, error) {
	q := database.Query{Model: &Log{}, Order: "created_at DESC, id DESC"}

	var clauses []string
	if filter.Status != "" && filter.Status != "all" {
		status := Status(filter.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		clauses = append(clauses, "status = ?")
		q.Args = append(q.Args, status)
	}
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		q.Args = append(q.Args, filter.Source)
	}
	q.Where = strings.Join(clauses, " AND ")

	pagination := database.NewPagination(page, limit, p.config.DefaultPageSize, p.config.MaxPageSize)

	total, err := p.gateway.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	q.Limit, q.Offset = pagination.Limit, pagination.Offset()
	logs := []Log{}
	if err := p.gateway.QueryMany(ctx, &logs, q); err != nil {
		return nil, err
	}

	return &LogPage{Webhooks: logs, Pagination: pagination.WithTotal(total)}, nil
}

func (p *Pipeline) CountByStatus(ctx context.Context, status Status) (int64, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}
	return p.gateway.Count(ctx, database.Query{
		Model: &Log{},
		Where: "status = ?",
		Args:  []any{status},
	})
}

func runHandler(ctx context.Context, handler Handler, payload json.RawMessage) (err error) {
	if handler == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, payload)
}

func normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return SourceUnknown
	}
	return source
}

func payloadText(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "{}"
	}
	return string(payload)
}
