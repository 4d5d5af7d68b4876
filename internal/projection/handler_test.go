package projection

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	coreagg "github.com/craftmarket/salesagg/internal/core/aggregation"
	httperr "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/craftmarket/salesagg/internal/core/storage"
	storagemocks "github.com/craftmarket/salesagg/internal/mocks/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_HandleQueryAggregate_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stored := doc("S1", "", coreagg.Daily, "2025-03-14", 600)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedType   string
		configure      func(store *storagemocks.AggregateStore, engine *fakeRecomputer)
	}{
		{
			name:           "stored document returns 200",
			path:           "/v1/aggregates/S1?granularity=daily&period=2025-03-14",
			expectedStatus: http.StatusOK,
			configure: func(store *storagemocks.AggregateStore, _ *fakeRecomputer) {
				store.EXPECT().Get(mock.Anything, stored.ID).Return(&stored, nil).Once()
			},
		},
		{
			name:           "invalid granularity returns 400",
			path:           "/v1/aggregates/S1?granularity=hourly",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "non canonical period returns 400",
			path:           "/v1/aggregates/S1?granularity=monthly&period=2025-3",
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "unknown product returns 404",
			path:           "/v1/aggregates/S1?product_id=ghost&period=2025-03-14",
			expectedStatus: http.StatusNotFound,
			expectedType:   httperr.HttpNotFoundError,
			configure: func(store *storagemocks.AggregateStore, _ *fakeRecomputer) {
				store.EXPECT().Get(mock.Anything, mock.Anything).Return(nil, storage.ErrNotFound).Once()
			},
		},
		{
			name:           "store failure returns 500",
			path:           "/v1/aggregates/S1",
			expectedStatus: http.StatusInternalServerError,
			expectedType:   httperr.HttpInternalError,
			configure: func(store *storagemocks.AggregateStore, _ *fakeRecomputer) {
				store.EXPECT().Get(mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
			},
		},
		{
			name:           "recompute failure returns 500",
			path:           "/v1/aggregates/S1?period=2025-03-14",
			expectedStatus: http.StatusInternalServerError,
			expectedType:   httperr.HttpInternalError,
			configure: func(store *storagemocks.AggregateStore, engine *fakeRecomputer) {
				store.EXPECT().Get(mock.Anything, mock.Anything).Return(nil, storage.ErrNotFound).Once()
				engine.err = errors.New("read history: timeout")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storagemocks.NewAggregateStore(t)
			engine := newFakeRecomputer()
			if tt.configure != nil {
				tt.configure(store, engine)
			}

			router := gin.New()
			newTestService(store, nil, engine).RegisterRoutes(router)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.expectedStatus, resp.Code)

			if tt.expectedType != "" {
				var errResp httperr.ErrorResponse
				require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
				require.Equal(t, tt.expectedType, errResp.ErrorType)
			}
		})
	}
}

func TestService_HandleQueryAggregate_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stored := doc("S1", "", coreagg.Daily, "2025-03-14", 600)
	store := storagemocks.NewAggregateStore(t)
	store.EXPECT().Get(mock.Anything, stored.ID).Return(&stored, nil).Once()

	router := gin.New()
	newTestService(store, nil, newFakeRecomputer()).RegisterRoutes(router)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/aggregates/S1?granularity=daily&period=2025-03-14", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Aggregate struct {
			ID           string `json:"id"`
			TotalRevenue string `json:"total_revenue"`
		} `json:"aggregate"`
		Source           string `json:"source"`
		StalenessSeconds int    `json:"staleness_seconds"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, stored.ID, body.Aggregate.ID)
	require.Equal(t, "600", body.Aggregate.TotalRevenue)
	require.Equal(t, SourceStore, body.Source)
	require.Equal(t, 90, body.StalenessSeconds)
}

func TestService_HandleQuerySeries(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := storagemocks.NewAggregateStore(t)
	store.EXPECT().Get(mock.Anything, mock.Anything).Return(nil, storage.ErrNotFound).Times(2)

	router := gin.New()
	newTestService(store, nil, newFakeRecomputer()).RegisterRoutes(router)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet,
		"/v1/aggregates/S1/series?granularity=monthly&start=2025-01-01T00:00:00Z&end=2025-03-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body SeriesQueryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Empty(t, body.Values)
	require.Equal(t, []string{"2025-01", "2025-02"}, body.MissingPeriods)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/aggregates/S1/series?granularity=monthly", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestService_HandleQueryProducts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := storagemocks.NewAggregateStore(t)
	store.EXPECT().
		ListBucket(mock.Anything, "S1", coreagg.Yearly, "2025").
		Return([]coreagg.SalesAggregate{doc("S1", "P9", coreagg.Yearly, "2025", 5)}, nil).
		Once()

	router := gin.New()
	newTestService(store, nil, newFakeRecomputer()).RegisterRoutes(router)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/v1/aggregates/S1/products?granularity=yearly&period=2025", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body ProductsQueryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Nil(t, body.Seller)
	require.Len(t, body.Products, 1)
	require.Equal(t, "P9", body.Products[0].ProductID)
}
