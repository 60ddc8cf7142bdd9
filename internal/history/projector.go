package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"cvpro/internal/events"
	"cvpro/kit/broker"
)

var ErrHistory = errors.New("history: storage")

// Entry is the per-reference purchase view built from lifecycle events.
type Entry struct {
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
	ArtifactPath  string    `json:"artifact_path,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Projector folds lifecycle events into the purchase history and keeps
// it on disk, one JSON document reloaded at startup.
type Projector struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

func NewProjector(path string) (*Projector, error) {
	p := &Projector{path: path, entries: make(map[string]Entry)}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// Handler adapts the projector to a broker subscription.
func (p *Projector) Handler() broker.Handler {
	return func(ctx context.Context, evt broker.Event) error {
		return p.Apply(ctx, evt)
	}
}

func (p *Projector) Apply(_ context.Context, evt broker.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := evt.(type) {
	case events.PaymentInitiated:
		p.entries[e.Reference] = Entry{
			Reference: e.Reference,
			Phone:     e.Phone,
			Amount:    e.Amount,
			Outcome:   "pending",
			StartedAt: e.At,
			UpdatedAt: e.At,
		}
	case events.GatewayRedirectStarted:
		ent := p.upsert(e.Reference, e.At)
		ent.TransactionID = e.TransactionID
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.ConfirmationPending:
		ent := p.upsert(e.Reference, e.At)
		if e.TransactionID != "" {
			ent.TransactionID = e.TransactionID
		}
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.PaymentConfirmed:
		ent := p.upsert(e.Reference, e.At)
		ent.TransactionID = e.TransactionID
		ent.Outcome = "confirmed"
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.PaymentFailed:
		ent := p.upsert(e.Reference, e.At)
		ent.Outcome = "failed"
		ent.Reason = e.Reason
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.PaymentTimedOut:
		ent := p.upsert(e.Reference, e.At)
		ent.Outcome = "timed_out"
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.PaymentCancelled:
		ent := p.upsert(e.Reference, e.At)
		ent.Outcome = "cancelled"
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.ArtifactDelivered:
		ent := p.upsert(e.Reference, e.At)
		ent.ArtifactPath = e.Path
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	case events.DeliveryFailed:
		ent := p.upsert(e.Reference, e.At)
		ent.Reason = e.Reason
		ent.UpdatedAt = e.At
		p.entries[e.Reference] = ent
	default:
		return nil
	}

	return p.persistLocked()
}

// List returns entries newest first.
func (p *Projector) List(_ context.Context) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, 0, len(p.entries))
	for _, ent := range p.entries {
		out = append(out, ent)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].Reference > out[j].Reference
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (p *Projector) Get(_ context.Context, reference string) (Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ent, ok := p.entries[reference]
	return ent, ok
}

func (p *Projector) upsert(reference string, at time.Time) Entry {
	ent, ok := p.entries[reference]
	if !ok {
		ent = Entry{Reference: reference, Outcome: "pending", StartedAt: at}
	}
	return ent
}

func (p *Projector) load() error {
	if p.path == "" {
		return nil
	}
	b, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Join(ErrHistory, err)
	}
	if len(b) == 0 {
		return nil
	}
	var entries map[string]Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return errors.Join(ErrHistory, err)
	}
	p.entries = entries
	return nil
}

func (p *Projector) persistLocked() error {
	if p.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return errors.Join(ErrHistory, err)
	}
	b, err := json.MarshalIndent(p.entries, "", "  ")
	if err != nil {
		return errors.Join(ErrHistory, err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Join(ErrHistory, err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return errors.Join(ErrHistory, err)
	}
	return nil
}
