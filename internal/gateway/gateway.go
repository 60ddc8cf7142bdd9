package gateway

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/pkg/browser"

	"cvpro/internal/api"
	"cvpro/internal/session"
)

// ErrUnavailable means no widget SDK is wired in, the analogue of the
// embedded payment script not having loaded.
var ErrUnavailable = errors.New("gateway: widget sdk unavailable")

func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

type Mode string

const (
	ModeRedirect Mode = "redirect"
	ModeEmbedded Mode = "embedded"
)

// Callbacks are supplied by the caller for the embedded flow. The
// widget fires exactly one terminal callback (OnSuccess or OnClose),
// possibly preceded by OnPending.
type Callbacks struct {
	OnSuccess func(reference string)
	OnPending func(reference string)
	OnClose   func(reference string)
}

// Charge is the embedded widget configuration for one session.
type Charge struct {
	Key       string
	Reference string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Amount    int64
	Currency  string
	Channels  []string
}

// WidgetSDK abstracts the embedded payment widget.
type WidgetSDK interface {
	GetPaid(ctx context.Context, c Charge, cb Callbacks) error
}

// Outcome is the one initiation result both integration styles feed
// into, so the lifecycle engine keeps a single transition table.
type Outcome interface {
	outcome()
}

// EmbeddedOutcome: the widget has the session and will drive the
// supplied callbacks.
type EmbeddedOutcome struct{}

// RedirectOutcome: the session must be persisted durably before the
// browsing context is handed to PaymentURL; nothing after that hand-off
// is guaranteed to run.
type RedirectOutcome struct {
	TransactionID string
	PaymentURL    string
}

// DirectOutcome: initiation accepted without a gateway hop; the caller
// polls status by transaction id.
type DirectOutcome struct {
	TransactionID string
}

func (EmbeddedOutcome) outcome() {}
func (RedirectOutcome) outcome() {}
func (DirectOutcome) outcome()   {}

type InitiateAPI interface {
	InitiatePayment(ctx context.Context, req api.InitiateRequest) (api.InitiateResponse, error)
}

type Config struct {
	Mode          Mode
	PublicKey     string
	Currency      string
	Amount        int64
	PaymentMethod string
	Channels      []string
}

// Adapter wraps the two integration styles behind Initiate.
type Adapter struct {
	cfg    Config
	api    InitiateAPI
	widget WidgetSDK
	open   func(url string) error
}

func NewAdapter(cfg Config, apiClient InitiateAPI, widget WidgetSDK) *Adapter {
	return &Adapter{cfg: cfg, api: apiClient, widget: widget, open: browser.OpenURL}
}

// NewAdapterWithOpener is used by tests to capture the control transfer
// instead of opening a real browser.
func NewAdapterWithOpener(cfg Config, apiClient InitiateAPI, widget WidgetSDK, open func(url string) error) *Adapter {
	a := NewAdapter(cfg, apiClient, widget)
	if open != nil {
		a.open = open
	}
	return a
}

func (a *Adapter) Initiate(ctx context.Context, s *session.Session, cb Callbacks) (Outcome, error) {
	if a.cfg.Mode == ModeEmbedded {
		return a.initiateEmbedded(ctx, s, cb)
	}
	return a.initiateRedirect(ctx, s)
}

func (a *Adapter) initiateEmbedded(ctx context.Context, s *session.Session, cb Callbacks) (Outcome, error) {
	if a.widget == nil {
		log.Printf("layer=adapter component=gateway method=initiateEmbedded reference=%s err=%v", s.Reference, ErrUnavailable)
		return nil, ErrUnavailable
	}
	first, last := splitName(s.Payload.PersonalInfo.FullName)
	charge := Charge{
		Key:       a.cfg.PublicKey,
		Reference: s.Reference,
		Email:     s.Payload.PersonalInfo.Email,
		FirstName: first,
		LastName:  last,
		Phone:     digitsOnly(s.Payload.PersonalInfo.Phone),
		Amount:    a.cfg.Amount,
		Currency:  a.cfg.Currency,
		Channels:  a.cfg.Channels,
	}
	if err := a.widget.GetPaid(ctx, charge, cb); err != nil {
		log.Printf("layer=adapter component=gateway method=initiateEmbedded reference=%s err=%v", s.Reference, err)
		return nil, err
	}
	return EmbeddedOutcome{}, nil
}

func (a *Adapter) initiateRedirect(ctx context.Context, s *session.Session) (Outcome, error) {
	resp, err := a.api.InitiatePayment(ctx, api.InitiateRequest{
		PhoneNumber:   s.Payload.PersonalInfo.Phone,
		PaymentMethod: a.cfg.PaymentMethod,
		Amount:        a.cfg.Amount,
		CVData:        s.Payload,
	})
	if err != nil {
		log.Printf("layer=adapter component=gateway method=initiateRedirect reference=%s err=%v", s.Reference, err)
		return nil, err
	}
	if resp.UseGateway && resp.PaymentURL != "" {
		return RedirectOutcome{TransactionID: resp.TransactionID, PaymentURL: resp.PaymentURL}, nil
	}
	return DirectOutcome{TransactionID: resp.TransactionID}, nil
}

// OpenPaymentPage transfers control to the hosted gateway page. The
// caller must have persisted the pending record first.
func (a *Adapter) OpenPaymentPage(url string) error {
	return a.open(url)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "Customer", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
