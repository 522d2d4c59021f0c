// Package service implements the registration wizard: resuming state,
// listing options, saving steps, and uploading documents.
package service

import (
	"context"
	"encoding/json"
	"time"

	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const optionsCacheTTL = 60 * time.Second

// Archiver keeps a copy of uploaded documents outside the CRM.
type Archiver interface {
	ArchiveDocument(ctx context.Context, opportunityID, docType, ext, contentType string, data []byte) (string, error)
}

type Service struct {
	crm      ports.CRM
	redis    *redis.Client // optional
	archiver Archiver      // optional
	clock    ports.Clock
	log      *logger.Logger
}

func New(crm ports.CRM, rdb *redis.Client, archiver Archiver, clock ports.Clock, log *logger.Logger) *Service {
	return &Service{crm: crm, redis: rdb, archiver: archiver, clock: clock, log: log}
}

// cached runs fetch through the options cache. Cache failures fall through
// to the CRM; options are read-mostly and safe to serve slightly stale.
func cached[T any](ctx context.Context, s *Service, key string, fetch func() (T, error)) (T, error) {
	var zero T
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var v T
			if json.Unmarshal(raw, &v) == nil {
				return v, nil
			}
		}
	}

	v, err := fetch()
	if err != nil {
		return zero, err
	}

	if s.redis != nil {
		if raw, err := json.Marshal(v); err == nil {
			s.redis.Set(ctx, key, raw, optionsCacheTTL)
		}
	}
	return v, nil
}
