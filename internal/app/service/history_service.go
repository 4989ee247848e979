package service

import (
	"context"
	"errors"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/repository"
	"go.uber.org/zap"
)

const (
	seenFilterCapacity  = 10000
	seenFilterFalseRate = 0.01
)

// ErrHistoryDisabled is returned when no history backend is configured.
var ErrHistoryDisabled = errors.New("history is disabled")

// HistoryService keeps the links this client created. A Bloom filter over
// original URLs answers most "shortened before?" questions without touching
// the store.
type HistoryService struct {
	repo   repository.HistoryRepository
	limit  int
	logger *zap.Logger

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewHistoryService returns a history service. repo may be nil, in which
// case every operation reports ErrHistoryDisabled.
func NewHistoryService(repo repository.HistoryRepository, limit int, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		repo:   repo,
		limit:  limit,
		logger: logger.Named("history"),
		seen:   bloom.NewWithEstimates(seenFilterCapacity, seenFilterFalseRate),
	}
}

// Enabled reports whether a backend is configured.
func (s *HistoryService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Warm adds every stored original URL to the seen filter.
func (s *HistoryService) Warm(ctx context.Context) error {
	if !s.Enabled() {
		return ErrHistoryDisabled
	}
	urls, err := s.repo.OriginalURLs(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		s.seen.AddString(u)
	}
	return nil
}

// Record stores a successful shorten result.
func (s *HistoryService) Record(ctx context.Context, result *model.ShortenResult) error {
	if !s.Enabled() {
		return ErrHistoryDisabled
	}
	if result == nil || result.ShortURL == "" {
		return nil
	}

	entry := &model.HistoryEntry{
		ShortURL:    result.ShortURL,
		ShortCode:   result.ShortCode,
		OriginalURL: result.OriginalURL,
	}
	if !result.CreatedAt.IsZero() {
		entry.CreatedAt = result.CreatedAt.Time
	}
	if result.ExpiresAt != nil && !result.ExpiresAt.IsZero() {
		t := result.ExpiresAt.Time
		entry.ExpiresAt = &t
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		return err
	}

	s.mu.Lock()
	s.seen.AddString(entry.OriginalURL)
	s.mu.Unlock()
	return nil
}

// Recent lists the newest entries first. limit <= 0 uses the configured size.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = s.limit
	}
	return s.repo.List(ctx, limit)
}

// Lookup returns the latest entry for originalURL, or
// repository.ErrEntryNotFound.
func (s *HistoryService) Lookup(ctx context.Context, originalURL string) (*model.HistoryEntry, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}

	s.mu.Lock()
	maybe := s.seen.TestString(originalURL)
	s.mu.Unlock()
	if !maybe {
		return nil, repository.ErrEntryNotFound
	}

	return s.repo.FindByOriginalURL(ctx, originalURL)
}
