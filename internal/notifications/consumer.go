package notifications

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
)

// Consumer drains queued notifications from Pub/Sub and delivers them inline.
type Consumer struct {
	subscription *pubsub.Subscriber
	transport    Transport
	logg         *logger.Logger
	metrics      *metrics.NotificationMetrics
}

func NewConsumer(subscription *pubsub.Subscriber, transport Transport, logg *logger.Logger, m *metrics.NotificationMetrics) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("notification subscription required")
	}
	if transport == nil {
		return nil, errors.New("notification transport required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{subscription: subscription, transport: transport, logg: logg, metrics: m}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Undecodable payloads
// and unrenderable notifications are acked and dropped; send failures are
// nacked for redelivery.
func (c *Consumer) process(ctx context.Context, messageID string, data []byte) bool {
	logCtx := c.logg.WithField(ctx, "message_id", messageID)

	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		c.logg.Error(logCtx, "failed to decode notification", err)
		return true
	}
	if !n.Template.IsValid() {
		c.logg.Warn(c.logg.WithField(logCtx, "template", string(n.Template)), "skipping unknown notification template")
		return true
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{"template": string(n.Template), "to": n.Recipient.Email})
	if err := c.transport.Deliver(ctx, n); err != nil {
		c.metrics.IncFailed(string(n.Template))
		c.logg.Error(logCtx, "notification delivery failed", err)
		return errors.Is(err, ErrUndeliverable)
	}
	c.metrics.IncSent(string(n.Template))
	c.logg.Info(logCtx, "notification delivered")
	return true
}
