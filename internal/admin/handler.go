package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	engine "github.com/craftmarket/salesagg/internal/aggregation"
	httperr "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// Handler handles admin HTTP requests.
type Handler struct {
	engine Controller
}

// NewHandler creates a new admin API handler.
func NewHandler(c Controller) *Handler {
	return &Handler{engine: c}
}

// RuntimeConfigBody is the wire form of the runtime configuration.
// UpdateInterval is a Go duration string such as "5s".
type RuntimeConfigBody struct {
	EnableRealTimeUpdates *bool  `json:"enable_real_time_updates"`
	BatchSize             int    `json:"batch_size"`
	UpdateInterval        string `json:"update_interval"`
	RetentionDays         int    `json:"retention_days"`
}

// PendingResponse summarizes the pending update queue.
type PendingResponse struct {
	Count    int                    `json:"count"`
	Flushing int                    `json:"flushing"`
	Buckets  []PendingBucketSummary `json:"buckets"`
}

// PendingBucketSummary is one queue entry.
type PendingBucketSummary struct {
	BucketID      string    `json:"bucket_id"`
	State         string    `json:"state"`
	EventCount    int       `json:"event_count"`
	Attempts      int       `json:"attempts"`
	LastEventID   string    `json:"last_event_id,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
}

// HandleGetConfig handles GET /v1/admin/aggregation/config.
func (h *Handler) HandleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, toBody(h.engine.RuntimeConfig()))
}

// HandleUpdateConfig handles PUT /v1/admin/aggregation/config.
// Omitted fields keep their current value.
func (h *Handler) HandleUpdateConfig(c *gin.Context) {
	var body RuntimeConfigBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}

	rc := h.engine.RuntimeConfig()
	if body.EnableRealTimeUpdates != nil {
		rc.EnableRealTimeUpdates = *body.EnableRealTimeUpdates
	}
	if body.BatchSize != 0 {
		rc.BatchSize = body.BatchSize
	}
	if body.RetentionDays != 0 {
		rc.RetentionDays = body.RetentionDays
	}
	if body.UpdateInterval != "" {
		d, err := time.ParseDuration(body.UpdateInterval)
		if err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidQueryError,
				Message:   "update_interval must be a duration such as \"5s\"",
				Details:   err.Error(),
			})
			return
		}
		rc.UpdateInterval = d
	}

	if err := h.engine.UpdateConfig(rc); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid runtime configuration",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, toBody(h.engine.RuntimeConfig()))
}

// HandlePending handles GET /v1/admin/aggregation/pending.
func (h *Handler) HandlePending(c *gin.Context) {
	pending := h.engine.Pending()
	resp := PendingResponse{
		Count:   len(pending),
		Buckets: make([]PendingBucketSummary, 0, len(pending)),
	}
	for _, u := range pending {
		if u.State == engine.StateFlushing {
			resp.Flushing++
		}
		resp.Buckets = append(resp.Buckets, PendingBucketSummary{
			BucketID:      u.Key.DocumentID(),
			State:         u.State,
			EventCount:    u.EventCount,
			Attempts:      u.Attempts,
			LastEventID:   u.LastEventID,
			LastError:     u.LastError,
			EnqueuedAt:    u.EnqueuedAt,
			NextAttemptAt: u.NextAttemptAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleListDeadLetters handles GET /v1/admin/aggregation/dead-letters.
func (h *Handler) HandleListDeadLetters(c *gin.Context) {
	letters := h.engine.DeadLetters()
	if letters == nil {
		letters = []engine.DeadLetter{}
	}
	c.JSON(http.StatusOK, letters)
}

// HandleRequeue handles POST /v1/admin/aggregation/dead-letters/:id/requeue.
func (h *Handler) HandleRequeue(c *gin.Context) {
	id := c.Param("id")

	err := h.engine.Requeue(id)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "requeued", "id": id})
	case errors.Is(err, engine.ErrDeadLetterNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   err.Error(),
		})
	case errors.Is(err, httperr.ErrBackpressure):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpBackpressureError,
			Message:   "Aggregation queue is full, retry later",
		})
	default:
		slog.Error("Dead letter requeue failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to requeue dead letter",
		})
	}
}

func toBody(rc engine.RuntimeConfig) RuntimeConfigBody {
	enabled := rc.EnableRealTimeUpdates
	return RuntimeConfigBody{
		EnableRealTimeUpdates: &enabled,
		BatchSize:             rc.BatchSize,
		UpdateInterval:        rc.UpdateInterval.String(),
		RetentionDays:         rc.RetentionDays,
	}
}
