package advisor

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

type TextCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// CachedClient serves repeated medication lookups from a cache. Diagnosis
// suggestions depend on the patient and always go to the service.
type CachedClient struct {
	next   ports.AdvisoryClient
	cache  TextCache
	logger zerolog.Logger
}

var _ ports.AdvisoryClient = (*CachedClient)(nil)

func NewCachedClient(next ports.AdvisoryClient, cache TextCache, logger zerolog.Logger) *CachedClient {
	return &CachedClient{next: next, cache: cache, logger: logger}
}

func (c *CachedClient) SuggestDiagnosis(ctx context.Context, symptoms, vitalsSummary, medicalHistory string) (string, error) {
	return c.next.SuggestDiagnosis(ctx, symptoms, vitalsSummary, medicalHistory)
}

func (c *CachedClient) MedicationInfo(ctx context.Context, medicationName string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(medicationName))

	if cached, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn().Err(err).Msg("medication cache read failed")
	} else if ok {
		return cached, nil
	}

	info, err := c.next.MedicationInfo(ctx, medicationName)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(ctx, key, info); err != nil {
		c.logger.Warn().Err(err).Msg("medication cache write failed")
	}
	return info, nil
}
