package gateway

import "context"

// FakeWidget is a scriptable widget for local runs and tests, the same
// role the fake gateway plays in a real integration's dev setup.
type FakeWidget struct {
	// Script decides which callback fires for a charge. Defaults to an
	// immediate OnSuccess.
	Script func(c Charge, cb Callbacks)
}

func NewFakeWidget() *FakeWidget {
	return &FakeWidget{}
}

func (w *FakeWidget) GetPaid(ctx context.Context, c Charge, cb Callbacks) error {
	if w.Script != nil {
		w.Script(c, cb)
		return nil
	}
	if cb.OnSuccess != nil {
		cb.OnSuccess(c.Reference)
	}
	return nil
}
