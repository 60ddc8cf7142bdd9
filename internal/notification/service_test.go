package notification

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cvpro/internal/events"
	"cvpro/kit/observability"
)

func TestService_NotifyWritesUserFacingLine(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(observability.NewLogger(), &buf)

	svc.Notify(context.Background(), events.ArtifactDelivered{Reference: "CV-1", Path: "/out/CV_Jane.pdf"})

	require.Equal(t, "Your CV has been saved to /out/CV_Jane.pdf.\n", buf.String())
}

func TestMessage(t *testing.T) {
	var tests = []struct {
		name     string
		evt      interface{ Name() string }
		contains string
	}{
		{name: "initiated", evt: events.PaymentInitiated{Amount: 50, Phone: "0977123456"}, contains: "K50"},
		{name: "redirect", evt: events.GatewayRedirectStarted{}, contains: "browser"},
		{name: "pending", evt: events.ConfirmationPending{}, contains: "Approve"},
		{name: "confirmed", evt: events.PaymentConfirmed{}, contains: "confirmed"},
		{name: "failed carries reason", evt: events.PaymentFailed{Reason: "declined"}, contains: "declined"},
		{name: "timeout names reference", evt: events.PaymentTimedOut{Reference: "CV-1"}, contains: "CV-1"},
		{name: "cancelled", evt: events.PaymentCancelled{}, contains: "No charge"},
		{name: "delivery failure names reference", evt: events.DeliveryFailed{Reference: "CV-1", Reason: "disk full"}, contains: "CV-1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Contains(t, Message(tt.evt), tt.contains)
		})
	}
}

func TestService_NilWriterDoesNotPanic(t *testing.T) {
	svc := NewService(nil, nil)
	svc.Notify(context.Background(), events.PaymentConfirmed{})
}
