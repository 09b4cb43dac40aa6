// Package notify delivers best-effort notifications about new contact messages.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

// Notifier is anything that can announce a stored message.
type Notifier interface {
	Notify(ctx context.Context, msg types.ContactMessage) error
}

// Channel is a named Notifier the Dispatcher fans out to.
type Channel interface {
	Notifier
	Name() string
}

var deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "portfolio_notifications_total",
	Help: "Notification attempts by channel and result.",
}, []string{"channel", "result"})

func init() {
	prometheus.MustRegister(deliveries)
}

// Dispatcher sends each message to every enabled channel in turn. It never
// panics and its error is informational only.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
}

// NewDispatcher keeps the channels that are usable. Channels exposing
// Enabled() bool are dropped when it reports false.
func NewDispatcher(timeout time.Duration, channels ...Channel) *Dispatcher {
	d := &Dispatcher{timeout: timeout}
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if e, ok := ch.(interface{ Enabled() bool }); ok && !e.Enabled() {
			continue
		}
		d.channels = append(d.channels, ch)
	}
	return d
}

// Channels names the active channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Notify delivers msg on every channel. The context is detached from the
// caller's cancellation and bounded by the dispatcher timeout.
func (d *Dispatcher) Notify(ctx context.Context, msg types.ContactMessage) error {
	if len(d.channels) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	var errs []error
	for _, ch := range d.channels {
		if err := send(ctx, ch, msg); err != nil {
			deliveries.WithLabelValues(ch.Name(), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		deliveries.WithLabelValues(ch.Name(), "sent").Inc()
	}
	return errors.Join(errs...)
}

func send(ctx context.Context, ch Channel, msg types.ContactMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Notify(ctx, msg)
}
