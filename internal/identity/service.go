package identity

import (
	"github.com/gin-gonic/gin"
	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

// Service stitches anonymous browsing history onto authenticated identities.
type Service struct {
	store storage.EventStore
}

func NewService(repo storage.EventStore) *Service {
	if repo == nil {
		panic("identity: store must not be nil")
	}
	return &Service{store: repo}
}

// RegisterRoutes registers the identity service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/identify", s.IdentifyHandler)
}
