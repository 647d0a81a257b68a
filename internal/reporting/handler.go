package reporting

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/shopsight-lab/shopsight/internal/core/errors"
)

// RegisterRoutes registers all reporting API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/reports/timeseries", s.HandleTimeseries)
	r.GET("/v1/reports/summary", s.HandleSummary)
	r.GET("/v1/reports/funnel", s.HandleFunnel)
	r.GET("/v1/reports/top", s.HandleTop)
	r.GET("/v1/reports/conversions", s.HandleConversions)
}

// HandleTimeseries handles GET /v1/reports/timeseries
// Query parameters: interval, metric
func (s *Service) HandleTimeseries(c *gin.Context) {
	var query struct {
		Interval string `form:"interval,default=daily"`
		Metric   string `form:"metric,default=visits"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeBadQuery(c, err.Error())
		return
	}

	resp, err := s.Timeseries(c.Request.Context(), query.Interval, query.Metric)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSummary handles GET /v1/reports/summary
func (s *Service) HandleSummary(c *gin.Context) {
	resp, err := s.Summary(c.Request.Context())
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleFunnel handles GET /v1/reports/funnel
// Query parameters: name, window_days
func (s *Service) HandleFunnel(c *gin.Context) {
	var query struct {
		Name       string `form:"name,default=checkout"`
		WindowDays int    `form:"window_days"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeBadQuery(c, err.Error())
		return
	}

	resp, err := s.Funnel(c.Request.Context(), query.Name, query.WindowDays)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleTop handles GET /v1/reports/top
// Query parameters: dimension, interval, limit
func (s *Service) HandleTop(c *gin.Context) {
	var query struct {
		Dimension string `form:"dimension,default=products"`
		Interval  string `form:"interval"`
		Limit     int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeBadQuery(c, err.Error())
		return
	}

	resp, err := s.Top(c.Request.Context(), query.Dimension, query.Interval, query.Limit)
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleConversions handles GET /v1/reports/conversions
func (s *Service) HandleConversions(c *gin.Context) {
	resp, err := s.Conversions(c.Request.Context())
	if err != nil {
		writeReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeBadQuery(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpBadQueryError,
		Message:   "Invalid query parameters",
		Details:   details,
	})
}

// writeReportError maps service errors onto the HTTP error taxonomy.
// Query failures surface as "data temporarily unavailable", never as
// silently wrong numbers.
func writeReportError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpBadQueryError,
			Message:   "Invalid report query",
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Report data temporarily unavailable",
		Details:   err.Error(),
	})
}
