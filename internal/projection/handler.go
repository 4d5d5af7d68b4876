package projection

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	httperr "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/aggregates/:seller_id", s.HandleQueryAggregate)
	r.GET("/v1/aggregates/:seller_id/series", s.HandleQuerySeries)
	r.GET("/v1/aggregates/:seller_id/products", s.HandleQueryProducts)
}

// HandleQueryAggregate handles GET /v1/aggregates/:seller_id
// Query parameters: granularity, period, product_id
func (s *Service) HandleQueryAggregate(c *gin.Context) {
	var query struct {
		Granularity string `form:"granularity"`
		Period      string `form:"period"`
		ProductID   string `form:"product_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeInvalid(c, err)
		return
	}

	resp, err := s.QueryAggregate(c.Request.Context(), AggregateQueryRequest{
		SellerID:    c.Param("seller_id"),
		ProductID:   query.ProductID,
		Granularity: query.Granularity,
		Period:      query.Period,
	})
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleQuerySeries handles GET /v1/aggregates/:seller_id/series
// Query parameters: granularity, start, end, product_id
func (s *Service) HandleQuerySeries(c *gin.Context) {
	var query struct {
		Granularity string    `form:"granularity" binding:"required"`
		Start       time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		End         time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		ProductID   string    `form:"product_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeInvalid(c, err)
		return
	}

	resp, err := s.QuerySeries(c.Request.Context(), SeriesQueryRequest{
		SellerID:    c.Param("seller_id"),
		ProductID:   query.ProductID,
		Granularity: query.Granularity,
		Start:       query.Start,
		End:         query.End,
	})
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleQueryProducts handles GET /v1/aggregates/:seller_id/products
// Query parameters: granularity, period
func (s *Service) HandleQueryProducts(c *gin.Context) {
	resp, err := s.QueryProducts(c.Request.Context(), c.Param("seller_id"), c.Query("granularity"), c.Query("period"))
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Message:   "Invalid query parameters",
		Details:   err.Error(),
	})
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery), httperr.IsIngestError(err):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid aggregate query",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrNoSales):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "No sales recorded for this bucket",
			Details:   err.Error(),
		})
	default:
		slog.Error("Aggregate query failed", "seller_id", c.Param("seller_id"), "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query aggregates",
		})
	}
}
