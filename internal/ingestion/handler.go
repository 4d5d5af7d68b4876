package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	httperr "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already exists"
	msgRateLimited    = "Too many events for this seller"
	msgBackpressure   = "Aggregation queue is full, retry later"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// Accept persists the event and queues its buckets. A duplicate is still
// handed to the engine before ErrDuplicate is returned: recomputation is
// idempotent, and a producer retrying after backpressure must not lose its buckets.
func Accept(ctx context.Context, store storage.EventStore, engine Processor, evt *v1.SalesEvent) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	// Postgres keeps microseconds; bucket on the instant that gets stored.
	evt.EventTimestamp = evt.EventTimestamp.Truncate(time.Microsecond)

	saveErr := store.SaveEvent(ctx, evt)
	if saveErr != nil && !errors.Is(saveErr, storage.ErrDuplicate) {
		return fmt.Errorf("persist event: %w", saveErr)
	}
	if err := engine.ProcessSalesEvent(ctx, evt); err != nil {
		return err
	}
	return saveErr
}

// IngestHandler handles POST /v1/sales-events.
func (s *Service) IngestHandler(c *gin.Context) {
	evt, payloadSize, ierr := s.parseEvent(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	if !s.limiter.Allow(evt.SellerID) {
		slog.Warn("Seller rate limited", "seller_id", evt.SellerID, "event_id", evt.EventID)
		writeError(c, &ingestionError{
			statusCode: http.StatusTooManyRequests,
			errorType:  httperr.HttpRateLimitedError,
			message:    msgRateLimited,
		})
		return
	}

	slog.Debug("Received sales event",
		"event_id", evt.EventID,
		"seller_id", evt.SellerID,
		"event_type", evt.EventType,
		"payload_size", payloadSize)

	if err := Accept(c.Request.Context(), s.store, s.engine, evt); err != nil {
		writeError(c, classify(evt, err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "event_id": evt.EventID})
}

// parseEvent reads the raw request body and binds it into a SalesEvent.
// Returns the parsed event and the raw payload size.
func (s *Service) parseEvent(c *gin.Context) (*v1.SalesEvent, int, *ingestionError) {
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

	var evt v1.SalesEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return &evt, len(bodyBytes), nil
}

// classify maps an Accept error onto the HTTP error shape.
func classify(evt *v1.SalesEvent, err error) *ingestionError {
	var invalid *httperr.IngestError
	switch {
	case errors.As(err, &invalid):
		slog.Warn("Sales event rejected", "error", err, "event_id", evt.EventID)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidEventError,
			message:    err.Error(),
			details:    map[string]interface{}{"field": invalid.Field},
		}
	case errors.Is(err, storage.ErrDuplicate):
		slog.Info("Duplicate event rejected", "event_id", evt.EventID, "seller_id", evt.SellerID)
		return &ingestionError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpDuplicateEventError,
			message:    msgDuplicateEvent,
		}
	case errors.Is(err, httperr.ErrBackpressure):
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpBackpressureError,
			message:    msgBackpressure,
		}
	default:
		slog.Error("Failed to persist event", "error", err, "event_id", evt.EventID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
}

// ListEventsHandler returns the raw events of a seller in [start, end).
func (s *Service) ListEventsHandler(c *gin.Context) {
	sellerID := c.Param("seller_id")

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		writeError(c, invalidQuery("start must be an RFC3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		writeError(c, invalidQuery("end must be an RFC3339 timestamp"))
		return
	}
	if !end.After(start) {
		writeError(c, invalidQuery("end must be after start"))
		return
	}

	events, err := s.store.GetEventsInRange(c.Request.Context(), sellerID, start, end)
	if err != nil {
		slog.Error("Failed to list events", "error", err, "seller_id", sellerID)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to list events",
		})
		return
	}
	if events == nil {
		events = []*v1.SalesEvent{}
	}
	c.JSON(http.StatusOK, events)
}

func invalidQuery(message string) *ingestionError {
	return &ingestionError{
		statusCode: http.StatusBadRequest,
		errorType:  httperr.HttpInvalidQueryError,
		message:    message,
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
