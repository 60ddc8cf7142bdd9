package lifecycle

import (
	"context"

	"cvpro/internal/api"
	"cvpro/internal/gateway"
	"cvpro/internal/resume"
	"cvpro/internal/session"
	"cvpro/kit/broker"
)

// ServiceAPIContract is what the engine needs from the remote payment
// service. Status and verify queries are idempotent reads.
type ServiceAPIContract interface {
	PaymentStatus(ctx context.Context, transactionID string) (api.StatusResponse, error)
	VerifyPayment(ctx context.Context, reference string) (api.VerifyResponse, error)
	GenerateArtifact(ctx context.Context, reference string, snap resume.Snapshot) (api.GenerateResponse, error)
	ResolveArtifactURL(pdfURL string) string
}

// GatewayContract define gateway adapter responsibility.
type GatewayContract interface {
	Initiate(ctx context.Context, s *session.Session, cb gateway.Callbacks) (gateway.Outcome, error)
	OpenPaymentPage(url string) error
}

// DeliveryContract define artifact delivery responsibility.
type DeliveryContract interface {
	Deliver(ctx context.Context, url, suggestedFilename string) (string, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}

// RegisterContract is the single-slot durable store for the pending
// session.
type RegisterContract = session.Register
