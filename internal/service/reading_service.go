package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bptracker/internal/cache"
	"bptracker/internal/errors"
	"bptracker/internal/model"
	"bptracker/internal/repository"
)

const (
	summaryCacheTTL      = time.Minute
	summaryGenerationTTL = 24 * time.Hour
)

// ReadingSummary aggregates one owner's readings.
type ReadingSummary struct {
	Count        int64           `json:"count"`
	AvgSystolic  decimal.Decimal `json:"avg_systolic"`
	AvgDiastolic decimal.Decimal `json:"avg_diastolic"`
}

// ReadingService manages readings on behalf of an already authorized owner.
type ReadingService interface {
	Create(ctx context.Context, ownerID uint, in ReadingInput) (*model.Reading, error)
	List(ctx context.Context, ownerID uint) ([]model.Reading, error)
	Delete(ctx context.Context, ownerID, readingID uint) error
	Summary(ctx context.Context, ownerID uint) (*ReadingSummary, error)
}

type readingService struct {
	repo      repository.ReadingRepository
	cache     *cache.Client
	validator *ReadingValidator
}

// NewReadingService creates a new reading service. Summaries are cached in
// redis when cache is non-nil.
func NewReadingService(repo repository.ReadingRepository, cache *cache.Client) ReadingService {
	return &readingService{
		repo:      repo,
		cache:     cache,
		validator: NewReadingValidator(),
	}
}

func generationKey(ownerID uint) string {
	return fmt.Sprintf("readings:%d:generation", ownerID)
}

// summaryKey embeds the owner's current generation, so a summary computed
// before a write lands under a key no reader asks for after the write.
func (s *readingService) summaryKey(ctx context.Context, ownerID uint) string {
	generation, _ := s.cache.Get(ctx, generationKey(ownerID))
	if generation == nil {
		generation = []byte("0")
	}
	return fmt.Sprintf("readings:%d:summary:%s", ownerID, generation)
}

// bumpGeneration retires every cached summary of the owner. A failed bump
// leaves the cached summary stale for at most summaryCacheTTL.
func (s *readingService) bumpGeneration(ctx context.Context, ownerID uint) {
	_, _ = s.cache.Incr(ctx, generationKey(ownerID), summaryGenerationTTL)
}

func (s *readingService) Create(ctx context.Context, ownerID uint, in ReadingInput) (*model.Reading, error) {
	reading, err := s.validator.ValidateReading(ownerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("create reading: %w", err)
	}
	s.bumpGeneration(ctx, ownerID)
	return reading, nil
}

func (s *readingService) List(ctx context.Context, ownerID uint) ([]model.Reading, error) {
	readings, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

// Delete removes the owner's reading. Absent and foreign readings both
// yield errors.ErrReadingNotFound.
func (s *readingService) Delete(ctx context.Context, ownerID, readingID uint) error {
	deleted, err := s.repo.DeleteByOwner(ctx, ownerID, readingID)
	if err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	if !deleted {
		return errors.ErrReadingNotFound
	}
	s.bumpGeneration(ctx, ownerID)
	return nil
}

// Summary averages are rounded half away from zero to one decimal place.
func (s *readingService) Summary(ctx context.Context, ownerID uint) (*ReadingSummary, error) {
	key := s.summaryKey(ctx, ownerID)
	var cached ReadingSummary
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	totals, err := s.repo.TotalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("summarize readings: %w", err)
	}

	summary := &ReadingSummary{
		Count:        totals.Count,
		AvgSystolic:  decimal.Zero,
		AvgDiastolic: decimal.Zero,
	}
	if totals.Count > 0 {
		count := decimal.NewFromInt(totals.Count)
		summary.AvgSystolic = decimal.NewFromInt(totals.SystolicSum).DivRound(count, 1)
		summary.AvgDiastolic = decimal.NewFromInt(totals.DiastolicSum).DivRound(count, 1)
	}

	_ = s.cache.SetJSON(ctx, key, summary, summaryCacheTTL)
	return summary, nil
}
