package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coi-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ComplianceCacheRepository caches evaluation results in Redis. The engine
// is deterministic over its rows and template, so a result keyed by
// (certificate, template, extraction run) is reusable until any of the
// three changes. Status derivation is time-dependent and is NOT cached;
// callers re-derive from the cached result with the current clock.
type ComplianceCacheRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewComplianceCacheRepository(redisClient *redis.Client, ttl time.Duration) *ComplianceCacheRepository {
	return &ComplianceCacheRepository{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func cacheKey(certificateID, templateID, runID uuid.UUID) string {
	return fmt.Sprintf("coi:compliance:%s:%s:%s", certificateID, templateID, runID)
}

func (r *ComplianceCacheRepository) Get(ctx context.Context, certificateID, templateID, runID uuid.UUID) (*models.ComplianceResult, error) {
	data, err := r.redisClient.Get(ctx, cacheKey(certificateID, templateID, runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached evaluation: %w", err)
	}

	var result models.ComplianceResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached evaluation: %w", err)
	}
	return &result, nil
}

func (r *ComplianceCacheRepository) Set(ctx context.Context, certificateID, templateID, runID uuid.UUID, result *models.ComplianceResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, cacheKey(certificateID, templateID, runID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache evaluation: %w", err)
	}
	return nil
}

// InvalidateCertificate drops every cached evaluation for one certificate,
// used after a re-extraction.
func (r *ComplianceCacheRepository) InvalidateCertificate(ctx context.Context, certificateID uuid.UUID) error {
	return r.deleteByPattern(ctx, fmt.Sprintf("coi:compliance:%s:*", certificateID))
}

// InvalidateTemplate drops every cached evaluation computed against one
// template, used after a template edit.
func (r *ComplianceCacheRepository) InvalidateTemplate(ctx context.Context, templateID uuid.UUID) error {
	return r.deleteByPattern(ctx, fmt.Sprintf("coi:compliance:*:%s:*", templateID))
}

func (r *ComplianceCacheRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var keys []string
	iter := r.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}
