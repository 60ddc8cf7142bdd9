package events

import "time"

type PaymentInitiated struct {
	Reference string    `json:"reference"`
	Phone     string    `json:"phone"`
	Amount    int64     `json:"amount"`
	At        time.Time `json:"at"`
}

func (PaymentInitiated) Name() string { return "payment.initiated" }

func (e PaymentInitiated) PartitionKey() string { return e.Reference }

type GatewayRedirectStarted struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	PaymentURL    string    `json:"payment_url"`
	At            time.Time `json:"at"`
}

func (GatewayRedirectStarted) Name() string { return "payment.redirect_started" }

func (e GatewayRedirectStarted) PartitionKey() string { return e.Reference }

type ConfirmationPending struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	At            time.Time `json:"at"`
}

func (ConfirmationPending) Name() string { return "payment.confirmation_pending" }

func (e ConfirmationPending) PartitionKey() string { return e.Reference }

type PaymentConfirmed struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	ArtifactURL   string    `json:"artifact_url"`
	At            time.Time `json:"at"`
}

func (PaymentConfirmed) Name() string { return "payment.confirmed" }

func (e PaymentConfirmed) PartitionKey() string { return e.Reference }

type PaymentFailed struct {
	Reference string    `json:"reference"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (PaymentFailed) Name() string { return "payment.failed" }

func (e PaymentFailed) PartitionKey() string { return e.Reference }

type PaymentTimedOut struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	At            time.Time `json:"at"`
}

func (PaymentTimedOut) Name() string { return "payment.timed_out" }

func (e PaymentTimedOut) PartitionKey() string { return e.Reference }

type PaymentCancelled struct {
	Reference string    `json:"reference"`
	At        time.Time `json:"at"`
}

func (PaymentCancelled) Name() string { return "payment.cancelled" }

func (e PaymentCancelled) PartitionKey() string { return e.Reference }

type ArtifactDelivered struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	ArtifactURL   string    `json:"artifact_url"`
	Path          string    `json:"path"`
	At            time.Time `json:"at"`
}

func (ArtifactDelivered) Name() string { return "artifact.delivered" }

func (e ArtifactDelivered) PartitionKey() string { return e.Reference }

type DeliveryFailed struct {
	Reference   string    `json:"reference"`
	ArtifactURL string    `json:"artifact_url"`
	Reason      string    `json:"reason"`
	At          time.Time `json:"at"`
}

func (DeliveryFailed) Name() string { return "artifact.delivery_failed" }

func (e DeliveryFailed) PartitionKey() string { return e.Reference }
