package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"github.com/tech-arch1tect/angrymail/services/webhooks"
	"go.uber.org/zap"
)

const webhookProcessedMessage = "Webhook received and processed"

type WebhookHandler struct {
	pipeline  *webhooks.Pipeline
	processor *webhooks.MoltbookProcessor
	logger    *logging.Service
}

func NewWebhookHandler(pipeline *webhooks.Pipeline, processor *webhooks.MoltbookProcessor, logger *logging.Service) *WebhookHandler {
	return &WebhookHandler{
		pipeline:  pipeline,
		processor: processor,
		logger:    logger,
	}
}

type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type WebhookFailureResponse struct {
	Error     string `json:"error"`
	WebhookID uint   `json:"webhook_id"`
}

func (h *WebhookHandler) Moltbook(c echo.Context) error {
	payload, err := readPayload(c)
	if err != nil {
		return err
	}

	log, err := h.pipeline.IngestWithProcessing(c.Request().Context(), webhooks.SourceMoltbook, payload, h.processor.Handle)
	if err != nil {
		if log != nil && errors.Is(err, apperrors.ErrProcessing) {
			h.logger.Warn("moltbook webhook rejected",
				zap.Uint("webhook_id", log.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, WebhookFailureResponse{
				Error:     "Failed to process webhook",
				WebhookID: log.ID,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, WebhookResponse{Success: true, Message: webhookProcessedMessage})
}

func (h *WebhookHandler) Generic(c echo.Context) error {
	payload, err := readPayload(c)
	if err != nil {
		return err
	}

	if _, err := h.pipeline.Ingest(c.Request().Context(), c.QueryParam("source"), payload); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, WebhookResponse{Success: true})
}

func (h *WebhookHandler) List(c echo.Context) error {
	page, limit := pageParams(c)
	filter := webhooks.Filter{
		Status: c.QueryParam("status"),
		Source: c.QueryParam("source"),
	}

	result, err := h.pipeline.ListLogs(c.Request().Context(), filter, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func readPayload(c echo.Context) (json.RawMessage, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, apperrors.Wrap(apperrors.KindValidation, errInvalidBody.Message, err)
	}
	return webhooks.NormalizePayload(body)
}
