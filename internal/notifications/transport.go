package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/pharmacy-backend/pkg/mailer"
)

// ErrUndeliverable marks notifications that can never be rendered; retrying them is pointless.
var ErrUndeliverable = errors.New("notification undeliverable")

// Transport hands a notification to its delivery mechanism.
type Transport interface {
	Deliver(ctx context.Context, n Notification) error
}

// InlineTransport renders and sends the email in-process.
type InlineTransport struct {
	renderer *Renderer
	sender   mailer.Sender
}

func NewInlineTransport(renderer *Renderer, sender mailer.Sender) (*InlineTransport, error) {
	if renderer == nil {
		return nil, errors.New("renderer required")
	}
	if sender == nil {
		return nil, errors.New("mail sender required")
	}
	return &InlineTransport{renderer: renderer, sender: sender}, nil
}

func (t *InlineTransport) Deliver(ctx context.Context, n Notification) error {
	msg, err := t.renderer.Render(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	return t.sender.Send(ctx, msg)
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubTransport queues notifications for cmd/notifier.
type PubSubTransport struct {
	publisher publisher
}

func NewPubSubTransport(p *pubsub.Publisher) (*PubSubTransport, error) {
	if p == nil {
		return nil, errors.New("notification publisher required")
	}
	return &PubSubTransport{publisher: &gcpPublisher{p: p}}, nil
}

func (t *PubSubTransport) Deliver(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	result := t.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"template": string(n.Template)},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	p *pubsub.Publisher
}

func (g *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return g.p.Publish(ctx, msg)
}

// Queues reports that delivery happens later in cmd/notifier.
func (t *PubSubTransport) Queues() bool { return true }
