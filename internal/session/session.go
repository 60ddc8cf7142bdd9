package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvpro/internal/resume"
)

type State string

const (
	StateIdle                    State = "idle"
	StateInitiating              State = "initiating"
	StateAwaitingGatewayRedirect State = "awaiting_gateway_redirect"
	StateAwaitingConfirmation    State = "awaiting_confirmation"
	StateConfirmed               State = "confirmed"
	StateFailed                  State = "failed"
	StateTimedOut                State = "timed_out"
	StateCancelled               State = "cancelled"
)

// Terminal reports whether no further automatic transition can occur
// without a brand-new initiation.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// Session is one payment attempt. Payload is frozen at initiation and
// ArtifactURL is only ever set together with StateConfirmed.
type Session struct {
	Reference     string
	TransactionID string
	State         State
	Payload       resume.Snapshot
	ArtifactURL   string
	Reason        string
	CreatedAt     time.Time
	Deadline      time.Time
}

func New(payload resume.Snapshot, now time.Time) *Session {
	return &Session{
		Reference: NewReference(now),
		State:     StateIdle,
		Payload:   payload,
		CreatedAt: now,
	}
}

// NewReference builds the client-side idempotency reference. Reusing
// one for the same attempt is safe server-side; every new initiation
// gets a fresh one.
func NewReference(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("CV-%d-%s", now.UnixMilli(), suffix)
}
