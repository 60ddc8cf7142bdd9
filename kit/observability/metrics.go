package observability

import "sync/atomic"

type Metrics struct {
	PaymentsInitiated  atomic.Int64
	PaymentsConfirmed  atomic.Int64
	PaymentsFailed     atomic.Int64
	PaymentsTimedOut   atomic.Int64
	PaymentsCancelled  atomic.Int64
	PollTicks          atomic.Int64
	ArtifactsDelivered atomic.Int64
	DeliveryFailures   atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}
