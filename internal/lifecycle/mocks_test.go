package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"cvpro/internal/api"
	"cvpro/internal/gateway"
	"cvpro/internal/resume"
	"cvpro/internal/session"
	"cvpro/kit/broker"
)

type ServiceAPIMock struct {
	mock.Mock
	ServiceAPIContract
}

func (m *ServiceAPIMock) PaymentStatus(ctx context.Context, transactionID string) (api.StatusResponse, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(api.StatusResponse), args.Error(1)
}

func (m *ServiceAPIMock) VerifyPayment(ctx context.Context, reference string) (api.VerifyResponse, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(api.VerifyResponse), args.Error(1)
}

func (m *ServiceAPIMock) GenerateArtifact(ctx context.Context, reference string, snap resume.Snapshot) (api.GenerateResponse, error) {
	args := m.Called(ctx, reference, snap)
	return args.Get(0).(api.GenerateResponse), args.Error(1)
}

func (m *ServiceAPIMock) ResolveArtifactURL(pdfURL string) string {
	args := m.Called(pdfURL)
	return args.String(0)
}

type DeliveryMock struct {
	mock.Mock
	DeliveryContract
}

func (m *DeliveryMock) Deliver(ctx context.Context, url, suggestedFilename string) (string, error) {
	args := m.Called(ctx, url, suggestedFilename)
	return args.String(0), args.Error(1)
}

// gatewayStub captures the callbacks handed to Initiate so embedded
// flow tests can fire them like the widget would. When enter/release
// are set, Initiate signals entry and holds its response until
// released, letting tests interleave other calls with an in-flight
// initiation request.
type gatewayStub struct {
	mu      sync.Mutex
	outcome gateway.Outcome
	err     error
	cb      gateway.Callbacks
	opened  []string
	onOpen  func(url string) error
	enter   chan struct{}
	release chan struct{}
}

func (g *gatewayStub) Initiate(ctx context.Context, s *session.Session, cb gateway.Callbacks) (gateway.Outcome, error) {
	g.mu.Lock()
	g.cb = cb
	enter, release := g.enter, g.release
	g.mu.Unlock()
	if enter != nil {
		close(enter)
	}
	if release != nil {
		<-release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome, g.err
}

func (g *gatewayStub) OpenPaymentPage(url string) error {
	g.mu.Lock()
	g.opened = append(g.opened, url)
	onOpen := g.onOpen
	g.mu.Unlock()
	if onOpen != nil {
		return onOpen(url)
	}
	return nil
}

func (g *gatewayStub) openedURLs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.opened...)
}

func (g *gatewayStub) callbacks() gateway.Callbacks {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cb
}

// eventRecorder collects published events in order.
type eventRecorder struct {
	mu     sync.Mutex
	events []broker.Event
}

func (r *eventRecorder) Publish(ctx context.Context, evt broker.Event) []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) all() []broker.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broker.Event(nil), r.events...)
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Name())
	}
	return out
}

// testClock is a manual clock shared between the engine's now func and
// an advancing sleep.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// advancingSleep moves the clock instead of waiting.
func advancingSleep(c *testClock) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Advance(d)
		return nil
	}
}

func immediateSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func blockingSleep(ctx context.Context, d time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}
