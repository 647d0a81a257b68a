package retention

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/shopsight-lab/shopsight/internal/core/errors"
)

// RegisterRoutes exposes the manual prune trigger. It shares the exact code
// path the scheduler uses, so an operator can drain ahead of schedule.
func (p *Pruner) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/admin/prune", p.HandlePrune)
}

// HandlePrune handles POST /v1/admin/prune and runs one batch.
func (p *Pruner) HandlePrune(c *gin.Context) {
	result, err := p.PruneOnce(c.Request.Context())
	if err != nil {
		slog.Error("[Retention] Manual prune failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Prune batch failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
