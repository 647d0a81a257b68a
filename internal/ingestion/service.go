package ingestion

import (
	"github.com/gin-gonic/gin"
	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

type Service struct {
	store            storage.EventStore
	contribFor       storage.ContributionFn
	maxBodySizeBytes int
}

func NewService(repo storage.EventStore, contribFor storage.ContributionFn, maxBodySizeMB int) *Service {
	if repo == nil {
		panic("ingestion: store must not be nil")
	}
	if contribFor == nil {
		panic("ingestion: contribution fn must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            repo,
		contribFor:       contribFor,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	// Canonical ingestion endpoint.
	r.POST("/v1/track", s.IngestHandler)
	r.GET("/v1/events/:actor_id", s.ListEventsHandler)

	// Alias matching common analytics SDK conventions.
	r.POST("/v1/events", s.IngestHandler)
}
