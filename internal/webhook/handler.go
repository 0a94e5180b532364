// internal/webhook/handler.go
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
)

const (
	headerSignature = "X-TRM-Signature"
	headerTimestamp = "X-TRM-Timestamp"
	headerEvent     = "X-TRM-Event"

	maxBodyBytes = 1 << 20
)

// EventHandler processes one verified webhook payload.
type EventHandler func(ctx context.Context, payload map[string]interface{}) (interface{}, error)

// Handler receives TRM platform webhooks, verifies the HMAC signature and
// timestamp, validates the payload against the event's JSON schema, and
// dispatches to the registered handler. Unknown events are acknowledged
// without dispatch so the platform does not retry them forever.
type Handler struct {
	secret   string
	maxSkew  time.Duration
	handlers map[string]EventHandler
	schemas  map[string]*gojsonschema.Schema
	now      func() time.Time
	log      logger.Logger
}

func NewHandler(secret string, maxSkew time.Duration, log logger.Logger) *Handler {
	return &Handler{
		secret:   secret,
		maxSkew:  maxSkew,
		handlers: make(map[string]EventHandler),
		schemas:  make(map[string]*gojsonschema.Schema),
		now:      time.Now,
		log:      log,
	}
}

// On registers a handler for an event. schemaJSON may be empty to skip
// payload validation for that event.
func (h *Handler) On(event, schemaJSON string, handler EventHandler) error {
	if schemaJSON != "" {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
		if err != nil {
			return err
		}
		h.schemas[event] = schema
	}
	h.handlers[event] = handler
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get(headerSignature)
	timestamp := r.Header.Get(headerTimestamp)
	event := r.Header.Get(headerEvent)
	if signature == "" || timestamp == "" || event == "" {
		writeError(w, http.StatusBadRequest, "missing required headers")
		return
	}

	if !VerifyTimestamp(timestamp, h.maxSkew, h.now()) {
		h.log.Warn("webhook timestamp outside allowed skew", map[string]interface{}{
			"event":     event,
			"timestamp": timestamp,
		})
		writeError(w, http.StatusUnauthorized, errors.NewWebhookSignatureInvalidError("timestamp outside allowed skew").Message)
		return
	}

	if !VerifySignature(h.secret, timestamp, body, signature) {
		h.log.Warn("webhook signature mismatch", map[string]interface{}{
			"event": event,
		})
		writeError(w, http.StatusUnauthorized, errors.NewWebhookSignatureInvalidError("signature mismatch").Message)
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if schema, ok := h.schemas[event]; ok {
		result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
		if err != nil {
			writeError(w, http.StatusBadRequest, "payload validation failed")
			return
		}
		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				details = append(details, e.String())
			}
			h.log.Warn("webhook payload rejected", map[string]interface{}{
				"event":  event,
				"errors": details,
			})
			writeError(w, http.StatusBadRequest, errors.NewWebhookPayloadInvalidError(event).Message)
			return
		}
	}

	handler, ok := h.handlers[event]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "no handler for event",
		})
		return
	}

	result, err := handler(r.Context(), payload)
	if err != nil {
		h.log.Error("webhook handler failed", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
