package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/ushort/internal/app/model"
	"go.uber.org/zap"
)

// Publisher is the subset of *nats.Conn the event publisher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// LinkEventPublisher publishes workflow outcomes to NATS. Failures are
// logged and never surface to the caller.
type LinkEventPublisher struct {
	conn   Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkEventPublisher creates a new link event publisher. A nil conn makes
// every call a no-op.
func NewLinkEventPublisher(conn Publisher, logger *zap.Logger) *LinkEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkEventPublisher{conn: conn, logger: logger.Named("events"), now: time.Now}
}

// Shortened publishes a successful shorten.
func (p *LinkEventPublisher) Shortened(result *model.ShortenResult) {
	if result == nil {
		return
	}
	p.publish(model.LinkSubjectShortened, model.LinkEvent{
		Type:        model.LinkEventShortened,
		ShortURL:    result.ShortURL,
		OriginalURL: result.OriginalURL,
		Code:        result.ShortCode,
	})
}

// ShortenFailed publishes a failed shorten with its user-facing message.
func (p *LinkEventPublisher) ShortenFailed(originalURL, message string, err error) {
	p.publish(model.LinkSubjectShortened, model.LinkEvent{
		Type:        model.LinkEventShortenFailed,
		OriginalURL: originalURL,
		Message:     message,
		HTTPStatus:  httpStatus(err),
	})
}

// Analyzed publishes a found analytics report with its derived status.
func (p *LinkEventPublisher) Analyzed(code string, result *model.AnalyticsResult, status model.LinkStatus) {
	if result == nil {
		return
	}
	p.publish(model.LinkSubjectAnalyzed, model.LinkEvent{
		Type:        model.LinkEventAnalyzed,
		ShortURL:    result.ShortURL,
		OriginalURL: result.OriginalURL,
		Code:        code,
		Status:      string(status),
	})
}

// LookupFailed publishes an analytics lookup that found nothing.
func (p *LinkEventPublisher) LookupFailed(code, message string, err error) {
	p.publish(model.LinkSubjectAnalyzed, model.LinkEvent{
		Type:       model.LinkEventLookupFailed,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus(err),
	})
}

func (p *LinkEventPublisher) publish(subject string, event model.LinkEvent) {
	if p == nil || p.conn == nil {
		return
	}
	event.ID = uuid.New().String()
	event.Timestamp = p.now()

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal link event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish link event",
			zap.String("subject", subject),
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}
}

func httpStatus(err error) int {
	var opErr *model.OperationError
	if errors.As(err, &opErr) {
		return opErr.StatusCode()
	}
	return 0
}
