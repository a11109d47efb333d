// Package notify delivers screening outcomes to the people watching over
// the elder: an SMS to the family contact for every screened call, and an
// optional Telegram alert to an ops channel for high-risk calls.
package notify

import (
	"context"
	"fmt"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
	"github.com/arassiq/SafeSenior/internal/telemetry"
)

// Notifier receives the outcome of a screened call. Implementations
// decide for themselves whether a given outcome warrants a message.
type Notifier interface {
	// Name identifies the channel in logs.
	Name() string
	// CallScreened delivers the outcome of one screened call.
	CallScreened(ctx context.Context, call *domain.Call) error
}

// Multi fans a screening outcome out to every configured channel.
// A failing channel never stops the others; failures are logged per
// channel and rolled up into a single error.
type Multi struct {
	notifiers []Notifier
	telemetry *telemetry.Provider
	logger    logger.Logger
}

// NewMulti creates a fan-out notifier over the given channels.
func NewMulti(log logger.Logger, tp *telemetry.Provider, notifiers ...Notifier) *Multi {
	return &Multi{
		notifiers: notifiers,
		telemetry: tp,
		logger:    log,
	}
}

// Name implements Notifier.
func (m *Multi) Name() string {
	return "multi"
}

// CallScreened delivers the outcome to every channel, logging and
// counting failures instead of short-circuiting.
func (m *Multi) CallScreened(ctx context.Context, call *domain.Call) error {
	var failed int

	for _, n := range m.notifiers {
		err := n.CallScreened(ctx, call)
		if m.telemetry != nil {
			m.telemetry.RecordNotification(ctx, n.Name(), err)
		}
		if err != nil {
			failed++
			m.logger.Error("Notification channel failed",
				logger.String("channel", n.Name()),
				logger.String("call_id", call.ID),
				logger.Error(err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d notification channels failed", failed, len(m.notifiers))
	}

	return nil
}
