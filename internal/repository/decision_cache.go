package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"AquaWatch/internal/domain/models"
	pkgcache "AquaWatch/pkg/cache"
	applogger "AquaWatch/pkg/logger"
)

const decisionHashKey = "decisions:latest"

// CachedDecisionStore keeps the latest decision per pond in a cache hash.
// With a Redis-backed cache the snapshot survives restarts and is shared
// across replicas; the memory cache covers single-node deployments.
type CachedDecisionStore struct {
	cache pkgcache.Service
	l     *applogger.Logger
}

func NewCachedDecisionStore(cache pkgcache.Service, l *applogger.Logger) *CachedDecisionStore {
	return &CachedDecisionStore{cache: cache, l: l}
}

func (s *CachedDecisionStore) Put(ctx context.Context, d *models.Decision) error {
	if d == nil || d.PondID == "" {
		return fmt.Errorf("decision requires a pond id")
	}
	return s.cache.HSet(ctx, decisionHashKey, d.PondID, d)
}

func (s *CachedDecisionStore) Get(ctx context.Context, pondID string) (*models.Decision, error) {
	var d models.Decision
	if err := s.cache.HGet(ctx, decisionHashKey, pondID, &d); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, fmt.Errorf("no decision for pond %s", pondID)
		}
		return nil, err
	}
	return &d, nil
}

// Snapshot returns the latest decision of every known pond, ordered by pond
// id for deterministic output.
func (s *CachedDecisionStore) Snapshot(ctx context.Context) ([]*models.Decision, error) {
	raw, err := s.cache.HGetAll(ctx, decisionHashKey)
	if err != nil {
		return nil, fmt.Errorf("decision snapshot: %w", err)
	}

	out := make([]*models.Decision, 0, len(raw))
	for pond, data := range raw {
		var d models.Decision
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			s.l.Warn("skipping undecodable cached decision",
				applogger.String("pond", pond),
				applogger.Error(err))
			continue
		}
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PondID < out[j].PondID })
	return out, nil
}
