package transfer

import (
	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/observability"
	"github.com/docvault/docvault/pkg/storage"
)

// DefaultParallelism bounds concurrent items inside one bulk operation.
const DefaultParallelism = 4

// Service orchestrates uploads and downloads across the object store and
// the document hierarchy. The two have no transactional coupling: blobs are
// written before rows on upload and deleted before rows on permanent
// delete, so a failure between the steps leaves orphan blobs, never a row
// without its content.
type Service struct {
	store       *dms.Store
	objects     storage.ObjectStore
	logger      *observability.Logger
	metrics     *observability.Metrics
	parallelism int
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics attaches upload/download metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithParallelism bounds concurrent items inside bulk operations
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// NewService creates an upload/download orchestrator
func NewService(store *dms.Store, objects storage.ObjectStore, logger *observability.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		objects:     objects,
		logger:      logger,
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
