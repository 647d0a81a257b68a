package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httperr "github.com/shopsight-lab/shopsight/internal/core/errors"
)

type identifyRequest struct {
	AnonymousID string `json:"anonymous_id"`
	UserID      string `json:"user_id"`
}

type identifyResponse struct {
	Linked int64 `json:"linked"`
}

// IdentifyHandler re-attributes an anonymous browsing history to an
// authenticated user. Only events still lacking a user_id are touched, so
// replays are harmless. Historical rollup buckets keep their anonymous
// dimension; the stitch changes future attribution and the raw event log.
func (s *Service) IdentifyHandler(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
		})
		return
	}

	req.AnonymousID = strings.TrimSpace(req.AnonymousID)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.AnonymousID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "anonymous_id and user_id are required",
		})
		return
	}

	linked, err := s.store.LinkIdentity(c.Request.Context(), req.AnonymousID, req.UserID)
	if err != nil {
		slog.Error("Identity stitch failed", "error", err, "anonymous_id", req.AnonymousID, "user_id", req.UserID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to link identity",
		})
		return
	}

	slog.Info("Identity stitched", "anonymous_id", req.AnonymousID, "user_id", req.UserID, "linked", linked)
	c.JSON(http.StatusOK, identifyResponse{Linked: linked})
}
