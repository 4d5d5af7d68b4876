package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	engine "github.com/craftmarket/salesagg/internal/aggregation"
	coreagg "github.com/craftmarket/salesagg/internal/core/aggregation"
	httperr "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/craftmarket/salesagg/internal/core/storage/memory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.NewEngine(engine.Deps{
		Source: memory.NewEventStore(),
		Store:  memory.NewAggregateStore(),
		Now:    func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	}, engine.Options{}, engine.RuntimeConfig{
		EnableRealTimeUpdates: true,
		BatchSize:             100,
		UpdateInterval:        5 * time.Second,
		RetentionDays:         365,
	})
	require.NoError(t, err)
	return e
}

func newRouter(c Controller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewService(c).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandleGetConfig(t *testing.T) {
	r := newRouter(newEngine(t))

	resp := do(r, http.MethodGet, "/v1/admin/aggregation/config", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body RuntimeConfigBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotNil(t, body.EnableRealTimeUpdates)
	require.True(t, *body.EnableRealTimeUpdates)
	require.Equal(t, 100, body.BatchSize)
	require.Equal(t, "5s", body.UpdateInterval)
	require.Equal(t, 365, body.RetentionDays)
}

func TestHandleUpdateConfig(t *testing.T) {
	e := newEngine(t)
	r := newRouter(e)

	resp := do(r, http.MethodPut, "/v1/admin/aggregation/config",
		[]byte(`{"enable_real_time_updates":false,"update_interval":"250ms"}`))
	require.Equal(t, http.StatusOK, resp.Code)

	rc := e.RuntimeConfig()
	require.False(t, rc.EnableRealTimeUpdates)
	require.Equal(t, 250*time.Millisecond, rc.UpdateInterval)
	require.Equal(t, 100, rc.BatchSize, "omitted fields keep their value")
}

func TestHandleUpdateConfig_Rejected(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedType string
	}{
		{name: "malformed json", body: `{`, expectedType: httperr.HttpInvalidJsonError},
		{name: "bad duration", body: `{"update_interval":"soon"}`, expectedType: httperr.HttpInvalidQueryError},
		{name: "negative batch size", body: `{"batch_size":-5}`, expectedType: httperr.HttpInvalidQueryError},
		{name: "negative interval", body: `{"update_interval":"-1s"}`, expectedType: httperr.HttpInvalidQueryError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			r := newRouter(e)

			resp := do(r, http.MethodPut, "/v1/admin/aggregation/config", []byte(tt.body))
			require.Equal(t, http.StatusBadRequest, resp.Code)

			var errResp httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
			require.Equal(t, tt.expectedType, errResp.ErrorType)
			require.Equal(t, 100, e.RuntimeConfig().BatchSize)
		})
	}
}

func TestHandlePending(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.ProcessSalesEvent(context.Background(), &v1.SalesEvent{
		EventID:        "e1",
		SellerID:       "S1",
		ProductID:      "P1",
		EventType:      v1.EventPaid,
		Channel:        "web",
		Quantity:       1,
		UnitPrice:      decimal.NewFromInt(10),
		TotalAmount:    decimal.NewFromInt(10),
		NetRevenue:     decimal.NewFromInt(10),
		EventTimestamp: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}))
	r := newRouter(e)

	resp := do(r, http.MethodGet, "/v1/admin/aggregation/pending", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body PendingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 8, body.Count)
	require.Zero(t, body.Flushing)
	require.Len(t, body.Buckets, 8)
	require.Equal(t, engine.StateQueued, body.Buckets[0].State)
	require.Equal(t, "e1", body.Buckets[0].LastEventID)
}

// stubController serves fixed dead letters and records requeues.
type stubController struct {
	*engine.Engine
	letters    []engine.DeadLetter
	requeueErr error
	requeued   []string
}

func (s *stubController) DeadLetters() []engine.DeadLetter {
	return s.letters
}

func (s *stubController) Requeue(id string) error {
	if s.requeueErr != nil {
		return s.requeueErr
	}
	for _, d := range s.letters {
		if d.ID == id {
			s.requeued = append(s.requeued, id)
			return nil
		}
	}
	return engine.ErrDeadLetterNotFound
}

func TestHandleDeadLetters(t *testing.T) {
	stub := &stubController{
		Engine: newEngine(t),
		letters: []engine.DeadLetter{{
			ID:          "dl-1",
			BucketID:    coreagg.DocumentID("S1", "", coreagg.Daily, "2025-03-14"),
			SellerID:    "S1",
			Granularity: coreagg.Daily,
			PeriodKey:   "2025-03-14",
			Attempts:    5,
			LastError:   "compute failed",
		}},
	}
	r := newRouter(stub)

	resp := do(r, http.MethodGet, "/v1/admin/aggregation/dead-letters", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var letters []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &letters))
	require.Len(t, letters, 1)
	require.Equal(t, "dl-1", letters[0]["id"])
	require.Equal(t, float64(5), letters[0]["attempts"])

	resp = do(r, http.MethodPost, "/v1/admin/aggregation/dead-letters/dl-1/requeue", nil)
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Equal(t, []string{"dl-1"}, stub.requeued)

	resp = do(r, http.MethodPost, "/v1/admin/aggregation/dead-letters/missing/requeue", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	stub.requeueErr = httperr.ErrBackpressure
	resp = do(r, http.MethodPost, "/v1/admin/aggregation/dead-letters/dl-1/requeue", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	stub.requeueErr = errors.New("invalid daily period key")
	resp = do(r, http.MethodPost, "/v1/admin/aggregation/dead-letters/dl-1/requeue", nil)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestHandleDeadLetters_EmptyIsArray(t *testing.T) {
	r := newRouter(newEngine(t))

	resp := do(r, http.MethodGet, "/v1/admin/aggregation/dead-letters", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `[]`, resp.Body.String())
}
