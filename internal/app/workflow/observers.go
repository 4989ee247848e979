package workflow

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/sifan077/ushort/internal/app/model"
	"go.uber.org/zap"
)

// HistoryRecorder persists successful shorten results.
type HistoryRecorder interface {
	Record(ctx context.Context, result *model.ShortenResult) error
}

// EventPublisher reports terminal outcomes to other processes.
type EventPublisher interface {
	Shortened(result *model.ShortenResult)
	ShortenFailed(originalURL, message string, err error)
	Analyzed(code string, result *model.AnalyticsResult, status model.LinkStatus)
	LookupFailed(code, message string, err error)
}

// RecordHistory saves every Succeeded result. Store errors are logged only.
func RecordHistory(ctx context.Context, h HistoryRecorder, logger *zap.Logger) ShortenObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(st ShortenState) {
		if st.Phase != ShortenSucceeded {
			return
		}
		if err := h.Record(ctx, st.Result); err != nil {
			logger.Warn("failed to record history", zap.String("short_url", st.Result.ShortURL), zap.Error(err))
		}
	}
}

// PublishShortenEvents forwards terminal shorten outcomes.
func PublishShortenEvents(p EventPublisher) ShortenObserver {
	return func(st ShortenState) {
		switch st.Phase {
		case ShortenSucceeded:
			p.Shortened(st.Result)
		case ShortenFailed:
			p.ShortenFailed(st.Submitted, st.Message, st.Err)
		}
	}
}

// PublishAnalyticsEvents forwards terminal analytics outcomes with the status
// derived at clk's now.
func PublishAnalyticsEvents(p EventPublisher, clk clock.Clock) AnalyticsObserver {
	if clk == nil {
		clk = clock.New()
	}
	return func(st AnalyticsState) {
		switch st.Phase {
		case AnalyticsFound:
			p.Analyzed(st.Code, st.Result, st.Result.Status(clk.Now()))
		case AnalyticsNotFound:
			p.LookupFailed(st.Code, st.Message, st.Err)
		}
	}
}
