package lifecycle

import (
	"time"

	"cvpro/internal/events"
	"cvpro/internal/session"
)

func ToPaymentInitiatedEvent(s *session.Session, amount int64, at time.Time) events.PaymentInitiated {
	return events.PaymentInitiated{Reference: s.Reference, Phone: s.Payload.PersonalInfo.Phone, Amount: amount, At: at}
}

func ToRedirectStartedEvent(s *session.Session, paymentURL string, at time.Time) events.GatewayRedirectStarted {
	return events.GatewayRedirectStarted{Reference: s.Reference, TransactionID: s.TransactionID, PaymentURL: paymentURL, At: at}
}

func ToConfirmationPendingEvent(s *session.Session, at time.Time) events.ConfirmationPending {
	return events.ConfirmationPending{Reference: s.Reference, TransactionID: s.TransactionID, At: at}
}

func ToPaymentConfirmedEvent(s *session.Session, at time.Time) events.PaymentConfirmed {
	return events.PaymentConfirmed{Reference: s.Reference, TransactionID: s.TransactionID, ArtifactURL: s.ArtifactURL, At: at}
}

func ToPaymentFailedEvent(s *session.Session, reason string, at time.Time) events.PaymentFailed {
	return events.PaymentFailed{Reference: s.Reference, Reason: reason, At: at}
}

func ToPaymentTimedOutEvent(s *session.Session, at time.Time) events.PaymentTimedOut {
	return events.PaymentTimedOut{Reference: s.Reference, TransactionID: s.TransactionID, At: at}
}

func ToPaymentCancelledEvent(reference string, at time.Time) events.PaymentCancelled {
	return events.PaymentCancelled{Reference: reference, At: at}
}

func ToArtifactDeliveredEvent(s *session.Session, path string, at time.Time) events.ArtifactDelivered {
	return events.ArtifactDelivered{Reference: s.Reference, TransactionID: s.TransactionID, ArtifactURL: s.ArtifactURL, Path: path, At: at}
}

func ToDeliveryFailedEvent(s *session.Session, reason string, at time.Time) events.DeliveryFailed {
	return events.DeliveryFailed{Reference: s.Reference, ArtifactURL: s.ArtifactURL, Reason: reason, At: at}
}
