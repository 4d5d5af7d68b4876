// Package admin exposes the operator surface of the aggregation engine.
package admin

import (
	engine "github.com/craftmarket/salesagg/internal/aggregation"
	"github.com/gin-gonic/gin"
)

// Controller is the part of the engine operators can inspect and change.
type Controller interface {
	RuntimeConfig() engine.RuntimeConfig
	UpdateConfig(rc engine.RuntimeConfig) error
	Pending() []engine.PendingUpdate
	DeadLetters() []engine.DeadLetter
	Requeue(id string) error
}

// Service provides the admin API.
type Service struct {
	engine Controller
}

// NewService creates a new admin API service.
func NewService(c Controller) *Service {
	if c == nil {
		panic("admin: controller must not be nil")
	}
	return &Service{engine: c}
}

// RegisterRoutes registers the admin API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	handler := NewHandler(s.engine)

	admin := r.Group("/v1/admin/aggregation")
	{
		admin.GET("/config", handler.HandleGetConfig)
		admin.PUT("/config", handler.HandleUpdateConfig)
		admin.GET("/pending", handler.HandlePending)
		admin.GET("/dead-letters", handler.HandleListDeadLetters)
		admin.POST("/dead-letters/:id/requeue", handler.HandleRequeue)
	}
}
