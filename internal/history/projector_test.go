package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cvpro/internal/events"
)

func TestProjector_FoldsLifecycle(t *testing.T) {
	ctx := context.Background()
	p, err := NewProjector(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.Apply(ctx, events.PaymentInitiated{Reference: "CV-1", Phone: "0977123456", Amount: 50, At: t0}))
	require.NoError(t, p.Apply(ctx, events.ConfirmationPending{Reference: "CV-1", TransactionID: "T1", At: t0.Add(time.Second)}))
	require.NoError(t, p.Apply(ctx, events.PaymentConfirmed{Reference: "CV-1", TransactionID: "T1", At: t0.Add(time.Minute)}))
	require.NoError(t, p.Apply(ctx, events.ArtifactDelivered{Reference: "CV-1", Path: "/out/CV_Jane.pdf", At: t0.Add(2 * time.Minute)}))

	ent, ok := p.Get(ctx, "CV-1")
	require.True(t, ok)
	require.Equal(t, "confirmed", ent.Outcome)
	require.Equal(t, "T1", ent.TransactionID)
	require.Equal(t, "/out/CV_Jane.pdf", ent.ArtifactPath)
	require.Equal(t, int64(50), ent.Amount)
	require.Equal(t, t0, ent.StartedAt)
}

func TestProjector_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	p, err := NewProjector(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.Apply(ctx, events.PaymentInitiated{Reference: "CV-old", At: t0}))
	require.NoError(t, p.Apply(ctx, events.PaymentInitiated{Reference: "CV-new", At: t0.Add(time.Hour)}))

	entries := p.List(ctx)
	require.Len(t, entries, 2)
	require.Equal(t, "CV-new", entries[0].Reference)
	require.Equal(t, "CV-old", entries[1].Reference)
}

func TestProjector_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")

	p1, err := NewProjector(path)
	require.NoError(t, err)
	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p1.Apply(ctx, events.PaymentInitiated{Reference: "CV-1", Amount: 50, At: t0}))
	require.NoError(t, p1.Apply(ctx, events.PaymentFailed{Reference: "CV-1", Reason: "declined", At: t0.Add(time.Minute)}))

	p2, err := NewProjector(path)
	require.NoError(t, err)
	ent, ok := p2.Get(ctx, "CV-1")
	require.True(t, ok)
	require.Equal(t, "failed", ent.Outcome)
	require.Equal(t, "declined", ent.Reason)
}

func TestProjector_EventForUnknownReference(t *testing.T) {
	ctx := context.Background()
	p, err := NewProjector(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	// A cancel arriving for a reference persisted by a previous run
	// still lands in history.
	t0 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.Apply(ctx, events.PaymentCancelled{Reference: "CV-prev", At: t0}))

	ent, ok := p.Get(ctx, "CV-prev")
	require.True(t, ok)
	require.Equal(t, "cancelled", ent.Outcome)
}

func TestProjector_NoPathIsInMemoryOnly(t *testing.T) {
	ctx := context.Background()
	p, err := NewProjector("")
	require.NoError(t, err)

	require.NoError(t, p.Apply(ctx, events.PaymentInitiated{Reference: "CV-1", At: time.Now().UTC()}))
	_, ok := p.Get(ctx, "CV-1")
	require.True(t, ok)
}
