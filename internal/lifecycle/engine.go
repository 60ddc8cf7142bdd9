package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"cvpro/internal/api"
	"cvpro/internal/gateway"
	"cvpro/internal/resume"
	"cvpro/internal/session"
	"cvpro/kit/broker"
	"cvpro/kit/observability"
)

// SleepFunc lets tests drive the poll clock.
type SleepFunc func(ctx context.Context, d time.Duration) error

func DefaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Config struct {
	PollInterval  time.Duration
	ConfirmWindow time.Duration // embedded/direct confirmation budget
	ResumeWindow  time.Duration // fresh budget after a redirect resumption
	Amount        int64
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = 3 * time.Minute
	}
	if c.ResumeWindow <= 0 {
		c.ResumeWindow = 5 * time.Minute
	}
	if c.Amount <= 0 {
		c.Amount = 50
	}
	return c
}

// Engine owns the payment session state machine: initiation,
// confirmation polling, timeout, cross-restart resumption and
// exactly-once artifact delivery. At most one session is active and at
// most one poll loop runs; a new initiation supersedes the previous one
// by bumping the generation counter, so stale callbacks and in-flight
// responses discard themselves.
type Engine struct {
	mu         sync.Mutex
	gen        uint64
	active     *session.Session
	last       *session.Session
	done       chan struct{}
	pollCancel context.CancelFunc

	gw       GatewayContract
	api      ServiceAPIContract
	delivery DeliveryContract
	register RegisterContract
	bus      PublisherContract
	metrics  *observability.Metrics
	validate *validatorv10.Validate
	cfg      Config
	now      func() time.Time
	sleep    SleepFunc
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithSleep(sleep SleepFunc) Option {
	return func(e *Engine) { e.sleep = sleep }
}

func NewEngine(gw GatewayContract, apiClient ServiceAPIContract, deliverySvc DeliveryContract, register RegisterContract, bus PublisherContract, metrics *observability.Metrics, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		gw:       gw,
		api:      apiClient,
		delivery: deliverySvc,
		register: register,
		bus:      bus,
		metrics:  metrics,
		validate: NewValidator(),
		cfg:      cfg.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
		sleep:    DefaultSleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initiate starts a new payment attempt for the given snapshot. The
// snapshot is validated before any network call; on validation failure
// nothing changes and no request leaves the process. A still-running
// previous attempt is superseded first.
func (e *Engine) Initiate(ctx context.Context, snap resume.Snapshot) (*session.Session, error) {
	if err := ValidateSnapshot(e.validate, snap); err != nil {
		log.Printf("layer=service component=lifecycle method=Initiate err=%v", err)
		return nil, errors.Join(ErrValidation, err)
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.stopPollLocked()
	s := session.New(snap, e.now())
	s.State = session.StateInitiating
	e.active = s
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.PaymentsInitiated.Add(1)
	}
	e.publish(ctx, ToPaymentInitiatedEvent(s, e.cfg.Amount, e.now()))

	outcome, err := e.gw.Initiate(ctx, s, e.embeddedCallbacks(gen))
	if err != nil {
		log.Printf("layer=service component=lifecycle method=Initiate reference=%s err=%v", s.Reference, err)
		e.abandon(gen, done)
		return nil, err
	}

	switch o := outcome.(type) {
	case gateway.RedirectOutcome:
		// The initiation response may land after a cancellation or a
		// newer attempt; a stale one is discarded without touching
		// state or the durable slot.
		e.mu.Lock()
		if gen != e.gen || e.active != s {
			e.mu.Unlock()
			return nil, ErrCancelled
		}
		s.TransactionID = o.TransactionID
		s.State = session.StateAwaitingGatewayRedirect
		// Everything needed to resume must be durable before control
		// leaves the process. Written under the session lock so a
		// concurrent cancel either supersedes this attempt first or
		// clears the slot afterwards.
		putErr := e.register.Put(ctx, e.pendingRecord(s))
		e.mu.Unlock()
		if putErr != nil {
			log.Printf("layer=service component=lifecycle method=Initiate reference=%s err=%v", s.Reference, putErr)
			e.abandon(gen, done)
			return nil, putErr
		}
		e.publish(ctx, ToRedirectStartedEvent(s, o.PaymentURL, e.now()))
		e.mu.Lock()
		current := gen == e.gen
		e.mu.Unlock()
		if !current {
			return nil, ErrCancelled
		}
		if err := e.gw.OpenPaymentPage(o.PaymentURL); err != nil {
			// The record is durable; the page can be opened by hand and
			// the run resumed later.
			log.Printf("layer=service component=lifecycle method=Initiate reference=%s err=%v", s.Reference, err)
		}
		return e.snapshotOf(s), nil

	case gateway.DirectOutcome:
		e.mu.Lock()
		if gen != e.gen || e.active != s {
			e.mu.Unlock()
			return nil, ErrCancelled
		}
		s.TransactionID = o.TransactionID
		s.State = session.StateAwaitingConfirmation
		s.Deadline = e.now().Add(e.cfg.ConfirmWindow)
		deadline := s.Deadline
		if err := e.register.Put(ctx, e.pendingRecord(s)); err != nil {
			log.Printf("layer=service component=lifecycle method=Initiate reference=%s err=%v", s.Reference, err)
		}
		e.mu.Unlock()
		e.publish(ctx, ToConfirmationPendingEvent(s, e.now()))
		e.startPoll(gen, deadline, e.statusQuery(o.TransactionID))
		return e.snapshotOf(s), nil

	case gateway.EmbeddedOutcome:
		// The widget drives the callbacks from here.
		return e.snapshotOf(s), nil

	default:
		e.abandon(gen, done)
		return nil, fmt.Errorf("unexpected gateway outcome: %T", o)
	}
}

// Resume picks up a session persisted before a control transfer or
// crash. It issues exactly one immediate status query; only if the
// payment is still pending does it fall back to interval polling with
// a fresh deadline. Returns (nil, nil) when nothing is pending.
func (e *Engine) Resume(ctx context.Context) (*session.Session, error) {
	rec, ok, err := e.register.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.stopPollLocked()
	s := &session.Session{
		Reference:     rec.Reference,
		TransactionID: rec.TransactionID,
		State:         session.StateAwaitingConfirmation,
		CreatedAt:     rec.CreatedAt,
	}
	e.active = s
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	st, err := e.api.PaymentStatus(ctx, rec.TransactionID)
	if err != nil {
		// Leave the slot intact: a later run can still resolve it.
		log.Printf("layer=service component=lifecycle method=Resume transaction_id=%s err=%v", rec.TransactionID, err)
		e.abandon(gen, done)
		return nil, err
	}

	switch st.Status {
	case api.StatusCompleted:
		e.finishConfirmed(ctx, gen, st.PDFURL)
		return e.Last(), nil
	case api.StatusFailed:
		e.finishFailed(ctx, gen, "payment was not completed")
		return e.Last(), nil
	default:
		e.mu.Lock()
		if gen != e.gen || e.active != s {
			e.mu.Unlock()
			return nil, ErrCancelled
		}
		s.Deadline = e.now().Add(e.cfg.ResumeWindow)
		deadline := s.Deadline
		e.mu.Unlock()
		e.publish(ctx, ToConfirmationPendingEvent(s, e.now()))
		e.startPoll(gen, deadline, e.statusQuery(rec.TransactionID))
		return e.snapshotOf(s), nil
	}
}

// Cancel aborts the active attempt, stops all polling and clears the
// durable slot. It also cancels a pending record left by a previous
// process when no session is active in this one.
func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	s := e.active
	if s != nil && s.State.Terminal() {
		// Settlement is already in flight; the outcome stands and the
		// session will still be reported by Await.
		e.mu.Unlock()
		return nil
	}
	e.gen++
	e.stopPollLocked()
	var done chan struct{}
	if s != nil {
		s.State = session.StateCancelled
		e.last = s
		e.active = nil
		done = e.done
		e.done = nil
	}
	e.mu.Unlock()

	reference := ""
	if s != nil {
		reference = s.Reference
	} else {
		if rec, ok, err := e.register.Get(ctx); err == nil && ok {
			reference = rec.Reference
		}
	}
	if err := e.register.Clear(ctx); err != nil {
		return err
	}
	if reference != "" {
		if e.metrics != nil {
			e.metrics.PaymentsCancelled.Add(1)
		}
		e.publish(ctx, ToPaymentCancelledEvent(reference, e.now()))
	}
	if done != nil {
		close(done)
	}
	return nil
}

// Close tears the engine down: timers stop and in-flight responses are
// discarded, but the durable slot is kept so the session can resume on
// the next run. Not a cancellation.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.stopPollLocked()
}

// Await blocks until the active session settles. A terminal session
// may still be finishing its artifact delivery, so the wait keys on
// settlement, not on the state alone. Terminal failures are reported
// as typed errors alongside the session.
func (e *Engine) Await(ctx context.Context) (*session.Session, error) {
	e.mu.Lock()
	done := e.done
	active := e.active
	e.mu.Unlock()

	if active != nil && done != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
	}

	s := e.Last()
	if s == nil {
		return nil, nil
	}
	switch s.State {
	case session.StateFailed:
		return s, errors.Join(ErrPaymentFailed, errors.New(s.Reason))
	case session.StateTimedOut:
		return s, ErrTimedOut
	default:
		return s, nil
	}
}

// Current returns a copy of the active session, or nil.
func (e *Engine) Current() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.active)
}

// Last returns a copy of the most recently settled session, or nil.
func (e *Engine) Last() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.last)
}

func (e *Engine) embeddedCallbacks(gen uint64) gateway.Callbacks {
	return gateway.Callbacks{
		OnSuccess: func(string) { e.handleEmbeddedSuccess(gen) },
		OnPending: func(string) { e.handleEmbeddedPending(gen) },
		OnClose:   func(string) { e.handleEmbeddedClose(gen) },
	}
}

func (e *Engine) handleEmbeddedSuccess(gen uint64) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	e.mu.Unlock()

	ctx := context.Background()
	resp, err := e.api.GenerateArtifact(ctx, s.Reference, s.Payload)
	if err != nil || !resp.Success || resp.PDFURL == "" {
		if err == nil {
			err = errors.New("generation rejected")
		}
		log.Printf("layer=service component=lifecycle method=handleEmbeddedSuccess reference=%s err=%v", s.Reference, err)
		e.finishGenerationFailed(ctx, gen, err)
		return
	}
	e.finishConfirmed(ctx, gen, resp.PDFURL)
}

func (e *Engine) handleEmbeddedPending(gen uint64) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	s.State = session.StateAwaitingConfirmation
	s.Deadline = e.now().Add(e.cfg.ConfirmWindow)
	deadline := s.Deadline
	reference := s.Reference
	e.mu.Unlock()

	e.publish(context.Background(), ToConfirmationPendingEvent(s, e.now()))
	e.startPoll(gen, deadline, e.verifyQuery(reference))
}

func (e *Engine) handleEmbeddedClose(gen uint64) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	s.State = session.StateCancelled
	s.Reason = "payment window closed, no charge was made"
	e.last = s
	e.active = nil
	done := e.done
	e.done = nil
	e.mu.Unlock()

	ctx := context.Background()
	_ = e.register.Clear(ctx)
	if e.metrics != nil {
		e.metrics.PaymentsCancelled.Add(1)
	}
	e.publish(ctx, ToPaymentCancelledEvent(s.Reference, e.now()))
	if done != nil {
		close(done)
	}
}

// startPoll launches the single poll loop for this generation. Any
// previous loop was already cancelled by the generation bump.
func (e *Engine) startPoll(gen uint64, deadline time.Time, query func(ctx context.Context) (string, string, error)) {
	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		cancel()
		return
	}
	e.pollCancel = cancel
	e.mu.Unlock()
	go e.runPoll(ctx, gen, deadline, query)
}

// runPoll queries at a fixed interval until a terminal status or the
// deadline. A tick runs to completion before the next is scheduled, so
// two transitions for the same session never race. Per-tick errors are
// swallowed; the deadline is the only budget they count against.
func (e *Engine) runPoll(ctx context.Context, gen uint64, deadline time.Time, query func(ctx context.Context) (string, string, error)) {
	for {
		if !e.now().Before(deadline) {
			e.finishTimedOut(context.Background(), gen)
			return
		}
		if err := e.sleep(ctx, e.cfg.PollInterval); err != nil {
			return
		}
		if e.metrics != nil {
			e.metrics.PollTicks.Add(1)
		}
		status, pdfURL, err := query(ctx)
		if err != nil {
			log.Printf("layer=service component=lifecycle method=runPoll err=%v", err)
			continue
		}
		switch status {
		case api.StatusCompleted:
			e.finishConfirmed(context.Background(), gen, pdfURL)
			return
		case api.StatusFailed:
			e.finishFailed(context.Background(), gen, "payment failed")
			return
		}
	}
}

func (e *Engine) statusQuery(transactionID string) func(ctx context.Context) (string, string, error) {
	return func(ctx context.Context) (string, string, error) {
		resp, err := e.api.PaymentStatus(ctx, transactionID)
		if err != nil {
			return "", "", err
		}
		return resp.Status, resp.PDFURL, nil
	}
}

func (e *Engine) verifyQuery(reference string) func(ctx context.Context) (string, string, error) {
	return func(ctx context.Context) (string, string, error) {
		resp, err := e.api.VerifyPayment(ctx, reference)
		if err != nil {
			return "", "", err
		}
		switch {
		case resp.Success && resp.Status == api.VerifySuccessful:
			return api.StatusCompleted, resp.PDFURL, nil
		case resp.Status == api.VerifyFailed:
			return api.StatusFailed, "", nil
		default:
			return api.StatusPending, "", nil
		}
	}
}

// finishConfirmed settles the session as Confirmed and triggers the one
// artifact delivery. A duplicate completion for an already-settled
// session is a no-op.
func (e *Engine) finishConfirmed(ctx context.Context, gen uint64, pdfURL string) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	s.State = session.StateConfirmed
	s.ArtifactURL = pdfURL
	e.mu.Unlock()

	_ = e.register.Clear(ctx)
	if e.metrics != nil {
		e.metrics.PaymentsConfirmed.Add(1)
	}
	e.publish(ctx, ToPaymentConfirmedEvent(s, e.now()))

	path, err := e.delivery.Deliver(ctx, e.api.ResolveArtifactURL(pdfURL), artifactFilename(s))
	if err != nil {
		// Money is captured; the session stays Confirmed.
		log.Printf("layer=service component=lifecycle method=finishConfirmed reference=%s err=%v", s.Reference, err)
		if e.metrics != nil {
			e.metrics.DeliveryFailures.Add(1)
		}
		e.publish(ctx, ToDeliveryFailedEvent(s, err.Error(), e.now()))
	} else {
		if e.metrics != nil {
			e.metrics.ArtifactsDelivered.Add(1)
		}
		e.publish(ctx, ToArtifactDeliveredEvent(s, path, e.now()))
	}
	e.settle(s)
}

func (e *Engine) finishFailed(ctx context.Context, gen uint64, reason string) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	s.State = session.StateFailed
	s.Reason = reason
	e.mu.Unlock()

	_ = e.register.Clear(ctx)
	if e.metrics != nil {
		e.metrics.PaymentsFailed.Add(1)
	}
	e.publish(ctx, ToPaymentFailedEvent(s, reason, e.now()))
	e.settle(s)
}

// finishGenerationFailed covers the narrow case where payment succeeded
// but the artifact could not be produced: terminal, surfaced with the
// reference for support, no retry of the charge.
func (e *Engine) finishGenerationFailed(ctx context.Context, gen uint64, cause error) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	s.State = session.StateFailed
	s.Reason = "payment succeeded but artifact generation failed, contact support with reference " + s.Reference
	e.mu.Unlock()

	_ = e.register.Clear(ctx)
	if e.metrics != nil {
		e.metrics.DeliveryFailures.Add(1)
	}
	e.publish(ctx, ToDeliveryFailedEvent(s, cause.Error(), e.now()))
	e.settle(s)
}

func (e *Engine) finishTimedOut(ctx context.Context, gen uint64) {
	e.mu.Lock()
	s := e.active
	if gen != e.gen || s == nil || s.State.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	s.State = session.StateTimedOut
	e.mu.Unlock()

	_ = e.register.Clear(ctx)
	if e.metrics != nil {
		e.metrics.PaymentsTimedOut.Add(1)
	}
	e.publish(ctx, ToPaymentTimedOutEvent(s, e.now()))
	e.settle(s)
}

// settle moves the active session to last and releases any waiter. It
// keys on session identity, not the generation counter, so a terminal
// session settles even if the counter moved between its terminal
// transition and this call.
func (e *Engine) settle(s *session.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != s {
		return
	}
	e.last = s
	e.active = nil
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
}

// abandon drops a session that never got durable state, without
// recording a terminal outcome.
func (e *Engine) abandon(gen uint64, done chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return
	}
	e.active = nil
	if e.done == done && done != nil {
		close(done)
		e.done = nil
	}
}

func (e *Engine) stopPollLocked() {
	if e.pollCancel != nil {
		e.pollCancel()
		e.pollCancel = nil
	}
}

func (e *Engine) pendingRecord(s *session.Session) session.PendingRecord {
	return session.PendingRecord{
		TransactionID: s.TransactionID,
		Reference:     s.Reference,
		Phone:         s.Payload.PersonalInfo.Phone,
		CreatedAt:     s.CreatedAt,
	}
}

func (e *Engine) publish(ctx context.Context, evt broker.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ctx, evt)
}

func (e *Engine) snapshotOf(s *session.Session) *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(s)
}

func (e *Engine) snapshotLocked(s *session.Session) *session.Session {
	if s == nil {
		return nil
	}
	cpy := *s
	return &cpy
}

func artifactFilename(s *session.Session) string {
	name := strings.TrimSpace(s.Payload.PersonalInfo.FullName)
	if name == "" {
		return "CV_" + s.Reference + ".pdf"
	}
	return "CV_" + strings.Join(strings.Fields(name), "_") + ".pdf"
}
