package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const defaultSendTimeout = 10 * time.Second

// Notifier is the best-effort surface consumed by services. Notify never fails
// the caller; problems are logged and counted.
type Notifier interface {
	Notify(ctx context.Context, notifications ...Notification)
}

type queueing interface {
	Queues() bool
}

// Dispatcher delivers notifications after the triggering transaction commits.
type Dispatcher struct {
	transport Transport
	logg      *logger.Logger
	metrics   *metrics.NotificationMetrics
	timeout   time.Duration
	queues    bool
}

func NewDispatcher(transport Transport, logg *logger.Logger, m *metrics.NotificationMetrics, timeout time.Duration) (*Dispatcher, error) {
	if transport == nil {
		return nil, errors.New("notification transport required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	d := &Dispatcher{transport: transport, logg: logg, metrics: m, timeout: timeout}
	if q, ok := transport.(queueing); ok {
		d.queues = q.Queues()
	}
	return d, nil
}

// Notify delivers on a context detached from the request so a client
// disconnect after commit does not drop the email.
func (d *Dispatcher) Notify(ctx context.Context, notifications ...Notification) {
	if len(notifications) == 0 {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	var errs error
	for _, n := range notifications {
		if err := d.transport.Deliver(sendCtx, n); err != nil {
			d.metrics.IncFailed(string(n.Template))
			errs = multierr.Append(errs, fmt.Errorf("%s to %s: %w", n.Template, n.Recipient.Email, err))
			continue
		}
		if d.queues {
			d.metrics.IncQueued(string(n.Template))
		} else {
			d.metrics.IncSent(string(n.Template))
		}
	}

	if errs != nil {
		logCtx := d.logg.WithField(ctx, "failed_notifications", len(multierr.Errors(errs)))
		d.logg.Error(logCtx, "notification delivery failed", errs)
	}
}

// Discard is a Notifier that drops everything; used by tools that must not email.
type Discard struct{}

func (Discard) Notify(context.Context, ...Notification) {}
