package ingestion

import (
	"context"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// Processor is the engine's ingest entry point.
type Processor interface {
	ProcessSalesEvent(ctx context.Context, evt *v1.SalesEvent) error
}

type Service struct {
	store            storage.EventStore
	engine           Processor
	limiter          *SellerLimiter
	maxBodySizeBytes int
}

func NewService(repo storage.EventStore, engine Processor, limiter *SellerLimiter, maxBodySizeMB int) *Service {
	if repo == nil {
		panic("ingestion: store must not be nil")
	}
	if engine == nil {
		panic("ingestion: engine must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            repo,
		engine:           engine,
		limiter:          limiter,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/sales-events", s.IngestHandler)
	r.GET("/v1/sales-events/:seller_id", s.ListEventsHandler)
}
