package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	httperr "github.com/shopsight-lab/shopsight/internal/core/errors"
	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already exists"

	defaultListLimit = 100
	maxListLimit     = 1000
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for event ingestion.
func (s *Service) IngestHandler(c *gin.Context) {
	evt, payloadSize, err := s.parseEvent(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := validateEvent(evt); err != nil {
		writeError(c, err)
		return
	}

	slog.Info("Received event",
		"event_id", evt.ID,
		"event_name", evt.Name,
		"actor_id", evt.ActorID(),
		"payload_size", payloadSize)

	if err := s.persistEvent(c.Request.Context(), evt); err != nil {
		writeError(c, err)
		return
	}

	// Event and its rollup contributions are committed in one transaction,
	// so reports already reflect it.
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "event_id": evt.ID})
}

// parseEvent reads the raw request body and binds it into an Event struct.
// Returns the parsed event and the raw payload size (used for structured logging upstream).
func (s *Service) parseEvent(c *gin.Context) (*v1.Event, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	// Check if body exceeds maximum size
	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	now := time.Now().UTC()
	if evt.ID == "" {
		// Server-generated id. Clients that want retry idempotency supply
		// their own.
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = now
	}
	evt.IngestedAt = now
	return &evt, len(bodyBytes), nil
}

// validateEvent runs envelope validation. Properties are deliberately never
// checked against a schema; rollup definitions type-check what they read.
func validateEvent(evt *v1.Event) *ingestionError {
	if err := evt.Validate(); err != nil {
		slog.Warn("Envelope validation failed", "error", err, "event_id", evt.ID)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    err.Error(),
		}
	}
	return nil
}

// persistEvent saves the event and its rollup contributions to the backing store.
func (s *Service) persistEvent(ctx context.Context, evt *v1.Event) *ingestionError {
	if err := s.store.AppendEvent(ctx, evt, s.contribFor(evt)); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate event rejected", "event_id", evt.ID, "actor_id", evt.ActorID())
			return &ingestionError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateEventError,
				message:    msgDuplicateEvent,
			}
		}

		slog.Error("Failed to persist event", "error", err, "event_id", evt.ID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	return nil
}

// ListEventsHandler returns the most recent events for one actor, newest
// first. The path parameter carries the "user:" or "anon:" prefix; a bare id
// is treated as an authenticated user id.
func (s *Service) ListEventsHandler(c *gin.Context) {
	actorID := c.Param("actor_id")

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			writeError(c, &ingestionError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpBadQueryError,
				message:    "limit must be an integer in [1, 1000]",
			})
			return
		}
		limit = n
	}

	var userID, anonymousID string
	switch {
	case strings.HasPrefix(actorID, v1.ActorPrefixUser):
		userID = strings.TrimPrefix(actorID, v1.ActorPrefixUser)
	case strings.HasPrefix(actorID, v1.ActorPrefixAnon):
		anonymousID = strings.TrimPrefix(actorID, v1.ActorPrefixAnon)
	default:
		userID = actorID
	}
	if userID == "" && anonymousID == "" {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpBadQueryError,
			message:    "actor id must not be empty",
		})
		return
	}

	events, err := s.store.ListEvents(c.Request.Context(), userID, anonymousID, limit)
	if err != nil {
		slog.Error("Failed to list events", "error", err, "actor_id", actorID)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to list events",
		})
		return
	}

	c.JSON(http.StatusOK, events)
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
