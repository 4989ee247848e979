package repository

import (
	"context"
	"errors"

	"github.com/sifan077/ushort/internal/app/model"
	"gorm.io/gorm"
)

const defaultListLimit = 20

var (
	// ErrEntryNotFound signals that no history entry matches the query.
	ErrEntryNotFound = errors.New("history entry not found")
)

// HistoryRepository defines the data access contract for shortened links
// this client has created.
type HistoryRepository interface {
	Save(ctx context.Context, entry *model.HistoryEntry) error
	List(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	FindByOriginalURL(ctx context.Context, originalURL string) (*model.HistoryEntry, error)
	// OriginalURLs returns every distinct original URL still stored.
	OriginalURLs(ctx context.Context) ([]string, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository returns a GORM-backed HistoryRepository.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Save(ctx context.Context, entry *model.HistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	return nil
}

func (r *historyRepository) List(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var result []model.HistoryEntry
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *historyRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	if err := r.db.WithContext(ctx).
		Where("original_url = ?", originalURL).
		Order("id DESC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *historyRepository) OriginalURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).
		Model(&model.HistoryEntry{}).
		Distinct().
		Pluck("original_url", &urls).Error; err != nil {
		return nil, err
	}
	return urls, nil
}
