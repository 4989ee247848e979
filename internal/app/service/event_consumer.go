package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ushort/internal/app/model"
	"go.uber.org/zap"
)

// LinkEventsWildcard matches every link event subject.
const LinkEventsWildcard = "ushort.links.>"

// Subscriber is the subset of *nats.Conn the consumer needs.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// LinkEventConsumer follows link events published by any client.
type LinkEventConsumer struct {
	conn   Subscriber
	logger *zap.Logger
}

// NewLinkEventConsumer creates a new link event consumer.
func NewLinkEventConsumer(conn Subscriber, logger *zap.Logger) *LinkEventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkEventConsumer{conn: conn, logger: logger.Named("events")}
}

// Follow delivers decoded events to handle until ctx is done.
func (c *LinkEventConsumer) Follow(ctx context.Context, handle func(model.LinkEvent)) error {
	sub, err := c.conn.Subscribe(LinkEventsWildcard, func(msg *nats.Msg) {
		c.dispatch(msg, handle)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		c.logger.Warn("failed to unsubscribe", zap.Error(err))
	}
	return nil
}

func (c *LinkEventConsumer) dispatch(msg *nats.Msg, handle func(model.LinkEvent)) {
	var event model.LinkEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Error("failed to unmarshal link event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	handle(event)
}
