package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHistoryRepository struct {
	entries   []model.HistoryEntry
	saveErr   error
	findCalls int
}

func (m *mockHistoryRepository) Save(ctx context.Context, entry *model.HistoryEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append([]model.HistoryEntry{*entry}, m.entries...)
	return nil
}

func (m *mockHistoryRepository) List(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *mockHistoryRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*model.HistoryEntry, error) {
	m.findCalls++
	for i := range m.entries {
		if m.entries[i].OriginalURL == originalURL {
			return &m.entries[i], nil
		}
	}
	return nil, repository.ErrEntryNotFound
}

func (m *mockHistoryRepository) OriginalURLs(ctx context.Context) ([]string, error) {
	urls := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		urls = append(urls, e.OriginalURL)
	}
	return urls, nil
}

func TestHistoryService_Disabled(t *testing.T) {
	svc := NewHistoryService(nil, 10, nil)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	assert.ErrorIs(t, svc.Record(ctx, &model.ShortenResult{ShortURL: "x"}), ErrHistoryDisabled)
	_, err := svc.Recent(ctx, 0)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = svc.Lookup(ctx, "https://a.com")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	assert.ErrorIs(t, svc.Warm(ctx), ErrHistoryDisabled)
}

func TestHistoryService_RecordAndLookup(t *testing.T) {
	repo := &mockHistoryRepository{}
	svc := NewHistoryService(repo, 10, nil)
	ctx := context.Background()

	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	expires := created.Add(24 * time.Hour)
	require.NoError(t, svc.Record(ctx, &model.ShortenResult{
		ShortURL:    "https://ushort.link/abc",
		ShortCode:   "abc",
		OriginalURL: "https://a.com",
		CreatedAt:   model.NewTimestamp(created),
		ExpiresAt:   model.Ptr(expires),
	}))

	require.Len(t, repo.entries, 1)
	assert.Equal(t, created, repo.entries[0].CreatedAt)
	require.NotNil(t, repo.entries[0].ExpiresAt)
	assert.Equal(t, expires, *repo.entries[0].ExpiresAt)

	found, err := svc.Lookup(ctx, "https://a.com")
	require.NoError(t, err)
	assert.Equal(t, "https://ushort.link/abc", found.ShortURL)
	assert.Equal(t, 1, repo.findCalls)
}

func TestHistoryService_LookupSkipsStoreForUnseenURL(t *testing.T) {
	repo := &mockHistoryRepository{}
	svc := NewHistoryService(repo, 10, nil)

	_, err := svc.Lookup(context.Background(), "https://never.com")
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
	assert.Zero(t, repo.findCalls)
}

func TestHistoryService_WarmSeedsFilter(t *testing.T) {
	repo := &mockHistoryRepository{entries: []model.HistoryEntry{
		{ID: 1, ShortURL: "https://ushort.link/old", OriginalURL: "https://old.com"},
	}}
	svc := NewHistoryService(repo, 10, nil)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "https://old.com")
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)

	require.NoError(t, svc.Warm(ctx))
	found, err := svc.Lookup(ctx, "https://old.com")
	require.NoError(t, err)
	assert.Equal(t, "https://ushort.link/old", found.ShortURL)
}

func TestHistoryService_WarmCoversEntriesBeyondListLimit(t *testing.T) {
	repo := &mockHistoryRepository{}
	for i := 0; i < 5; i++ {
		repo.entries = append(repo.entries, model.HistoryEntry{
			ID:          uint(i + 1),
			ShortURL:    fmt.Sprintf("https://ushort.link/%d", i),
			OriginalURL: fmt.Sprintf("https://site%d.com", i),
		})
	}
	svc := NewHistoryService(repo, 2, nil)
	ctx := context.Background()
	require.NoError(t, svc.Warm(ctx))

	oldest, err := svc.Lookup(ctx, "https://site4.com")
	require.NoError(t, err)
	assert.Equal(t, "https://ushort.link/4", oldest.ShortURL)
}

func TestHistoryService_RecordSaveError(t *testing.T) {
	repo := &mockHistoryRepository{saveErr: errors.New("disk full")}
	svc := NewHistoryService(repo, 10, nil)

	err := svc.Record(context.Background(), &model.ShortenResult{ShortURL: "https://ushort.link/x", OriginalURL: "https://x.com"})
	assert.EqualError(t, err, "disk full")

	_, err = svc.Lookup(context.Background(), "https://x.com")
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
	assert.Zero(t, repo.findCalls)
}

func TestHistoryService_RecentDefaultsToConfiguredLimit(t *testing.T) {
	repo := &mockHistoryRepository{}
	svc := NewHistoryService(repo, 2, nil)
	ctx := context.Background()

	for _, u := range []string{"https://a.com", "https://b.com", "https://c.com"} {
		require.NoError(t, svc.Record(ctx, &model.ShortenResult{ShortURL: u + "/s", OriginalURL: u}))
	}

	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "https://c.com", recent[0].OriginalURL)
}
