package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestBus_PublishFansOutInOrder(t *testing.T) {
	bus := New()
	defer bus.Close()

	var got []string
	bus.Subscribe("a", func(ctx context.Context, evt Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe("a", func(ctx context.Context, evt Event) error {
		got = append(got, "second")
		return nil
	})

	errs := bus.Publish(context.Background(), testEvent{name: "a"})
	require.Empty(t, errs)
	require.Equal(t, []string{"first", "second"}, got)
}

func TestBus_PublishNoSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()

	require.Empty(t, bus.Publish(context.Background(), testEvent{name: "nobody"}))
}

func TestBus_HandlerErrorsAreCollected(t *testing.T) {
	bus := New()
	defer bus.Close()

	boom := errors.New("boom")
	called := false
	bus.Subscribe("a", func(ctx context.Context, evt Event) error { return boom })
	bus.Subscribe("a", func(ctx context.Context, evt Event) error {
		called = true
		return nil
	})

	errs := bus.Publish(context.Background(), testEvent{name: "a"})
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], boom)
	// One failing handler does not stop the rest.
	require.True(t, called)
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := New()
	defer bus.Close()

	bus.Subscribe("a", func(ctx context.Context, evt Event) error { panic("bad handler") })

	var errs []error
	require.NotPanics(t, func() {
		errs = bus.Publish(context.Background(), testEvent{name: "a"})
	})
	require.Len(t, errs, 1)
}

func TestBus_ClosedBusDropsEverything(t *testing.T) {
	bus := New()

	called := false
	bus.Subscribe("a", func(ctx context.Context, evt Event) error {
		called = true
		return nil
	})
	bus.Close()

	require.Empty(t, bus.Publish(context.Background(), testEvent{name: "a"}))
	require.False(t, called)

	bus.Subscribe("a", func(ctx context.Context, evt Event) error { return nil })
	require.Empty(t, bus.Publish(context.Background(), testEvent{name: "a"}))
}
