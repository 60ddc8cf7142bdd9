package notification

import (
	"context"
	"fmt"
	"io"

	"cvpro/internal/events"
	"cvpro/kit/broker"
	"cvpro/kit/observability"
)

// Service renders user-facing progress messages from lifecycle events.
// It writes to the terminal the way the payment flow used to toast.
type Service struct {
	logger *observability.Logger
	out    io.Writer
}

func NewService(logger *observability.Logger, out io.Writer) *Service {
	return &Service{logger: logger, out: out}
}

// Handler adapts the service to a broker subscription.
func (s *Service) Handler() broker.Handler {
	return func(ctx context.Context, evt broker.Event) error {
		s.Notify(ctx, evt)
		return nil
	}
}

func (s *Service) Notify(_ context.Context, evt broker.Event) {
	msg := Message(evt)
	if msg == "" {
		return
	}
	if s.logger != nil {
		s.logger.Info("notify", "event", evt.Name(), "msg", msg)
	}
	if s.out != nil {
		fmt.Fprintln(s.out, msg)
	}
}

// Message maps an event to the line shown to the user. Unknown events
// produce nothing.
func Message(evt broker.Event) string {
	switch e := evt.(type) {
	case events.PaymentInitiated:
		return fmt.Sprintf("Initiating payment of K%d to %s...", e.Amount, e.Phone)
	case events.GatewayRedirectStarted:
		return "Opening the payment page in your browser. Complete the payment there, then run resume."
	case events.ConfirmationPending:
		return "Waiting for payment confirmation. Approve the prompt on your phone."
	case events.PaymentConfirmed:
		return "Payment confirmed. Preparing your CV..."
	case events.PaymentFailed:
		return "Payment failed: " + e.Reason
	case events.PaymentTimedOut:
		return "Payment confirmation timed out. If you were charged, contact support with reference " + e.Reference + "."
	case events.PaymentCancelled:
		return "Payment cancelled. No charge was made."
	case events.ArtifactDelivered:
		return "Your CV has been saved to " + e.Path + "."
	case events.DeliveryFailed:
		return "Your payment went through but the CV could not be downloaded: " + e.Reason + ". Contact support with reference " + e.Reference + "."
	default:
		return ""
	}
}
