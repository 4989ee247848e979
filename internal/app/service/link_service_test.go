package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sifan077/ushort/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	sendFn func(ctx context.Context, method, path string, body interface{}) ([]byte, error)
}

func (m *mockSender) Send(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if m.sendFn != nil {
		return m.sendFn(ctx, method, path, body)
	}
	return []byte(`{}`), nil
}

func TestLinkService_Shorten(t *testing.T) {
	api := &mockSender{
		sendFn: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
			assert.Equal(t, http.MethodPost, method)
			assert.Equal(t, "/shorten", path)
			assert.Equal(t, model.ShortenRequest{OriginalURL: "https://example.com"}, body)
			return []byte(`{"shortUrl":"https://ushort.link/abc","originalUrl":"https://example.com","shortCode":"abc","expiresAt":null}`), nil
		},
	}

	svc := NewLinkService(api)
	result, err := svc.Shorten(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://ushort.link/abc", result.ShortURL)
	assert.Equal(t, "https://example.com", result.OriginalURL)
	assert.Equal(t, "abc", result.ShortCode)
	assert.Nil(t, result.ExpiresAt)
}

func TestLinkService_Shorten_PassesErrorThrough(t *testing.T) {
	status := http.StatusTooManyRequests
	want := &model.OperationError{HTTPStatus: &status, UserMessage: "slow down"}
	api := &mockSender{
		sendFn: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
			return nil, want
		},
	}

	_, err := NewLinkService(api).Shorten(context.Background(), "https://example.com")
	assert.Same(t, want, err)
}

func TestLinkService_Shorten_BadPayload(t *testing.T) {
	api := &mockSender{
		sendFn: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
			return []byte(`not json`), nil
		},
	}

	_, err := NewLinkService(api).Shorten(context.Background(), "https://example.com")
	require.Error(t, err)

	var opErr *model.OperationError
	assert.False(t, errors.As(err, &opErr))
}

func TestLinkService_GetAnalytics(t *testing.T) {
	api := &mockSender{
		sendFn: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
			assert.Equal(t, http.MethodGet, method)
			assert.Equal(t, "/analytics/abc123", path)
			assert.Nil(t, body)
			return []byte(`{"shortUrl":"https://ushort.link/abc123","clickCount":7,"isActive":true,"createdAt":"2026-01-01T00:00:00"}`), nil
		},
	}

	result, err := NewLinkService(api).GetAnalytics(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.ClickCount)
	assert.True(t, result.IsActive)
}

func TestLinkService_GetAnalytics_EscapesCode(t *testing.T) {
	api := &mockSender{
		sendFn: func(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
			assert.Equal(t, "/analytics/a%20b", path)
			return []byte(`{}`), nil
		},
	}

	_, err := NewLinkService(api).GetAnalytics(context.Background(), "a b")
	require.NoError(t, err)
}
