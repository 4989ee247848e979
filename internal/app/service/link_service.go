package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sifan077/ushort/internal/app/model"
)

// Sender is the transport the link service runs on.
type Sender interface {
	Send(ctx context.Context, method, path string, body interface{}) ([]byte, error)
}

// LinkService defines the operations the link service API offers.
type LinkService interface {
	Shorten(ctx context.Context, originalURL string) (*model.ShortenResult, error)
	GetAnalytics(ctx context.Context, code string) (*model.AnalyticsResult, error)
}

type linkService struct {
	api Sender
}

// NewLinkService returns a service implementation backed by the given transport.
func NewLinkService(api Sender) LinkService {
	return &linkService{api: api}
}

// Shorten asks the service for a new short link. Every call is a fresh
// creation attempt.
func (s *linkService) Shorten(ctx context.Context, originalURL string) (*model.ShortenResult, error) {
	payload, err := s.api.Send(ctx, http.MethodPost, "/shorten", model.ShortenRequest{OriginalURL: originalURL})
	if err != nil {
		return nil, err
	}

	var result model.ShortenResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode shorten response: %w", err)
	}
	return &result, nil
}

// GetAnalytics fetches the usage report for code.
func (s *linkService) GetAnalytics(ctx context.Context, code string) (*model.AnalyticsResult, error) {
	payload, err := s.api.Send(ctx, http.MethodGet, "/analytics/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, err
	}

	var result model.AnalyticsResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode analytics response: %w", err)
	}
	return &result, nil
}
