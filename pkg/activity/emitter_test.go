package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterStampsDefaultChannel(t *testing.T) {
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{Enabled: true})
	require.True(t, em.Enabled())

	err := em.Emit(context.Background(), Event{
		Verb:       "storefront.orders.status",
		ObjectType: "orders",
		ObjectID:   "3",
		Metadata:   map[string]any{"status": "completed"},
	})
	require.NoError(t, err)
	require.Len(t, capture.Events, 1)
	assert.Equal(t, "storefront", capture.Events[0].Channel)
	assert.Equal(t, "completed", capture.Events[0].Metadata["status"])
	assert.False(t, capture.Events[0].OccurredAt.IsZero())
}

func TestEmitterKeepsExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "admin"})

	require.NoError(t, em.Emit(context.Background(), Event{Verb: "v", ObjectType: "products", Channel: "catalog"}))
	require.NoError(t, em.Emit(context.Background(), Event{Verb: "v", ObjectType: "products"}))
	require.Len(t, capture.Events, 2)
	assert.Equal(t, "catalog", capture.Events[0].Channel)
	assert.Equal(t, "admin", capture.Events[1].Channel)
}

func TestEmitterDisabled(t *testing.T) {
	assert.False(t, NewEmitter(nil, Config{Enabled: true}).Enabled())

	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{})
	require.NoError(t, em.Emit(context.Background(), Event{Verb: "v", ObjectType: "o"}))
	assert.Empty(t, capture.Events)

	var nilEmitter *Emitter
	assert.False(t, nilEmitter.Enabled())
	assert.NoError(t, nilEmitter.Emit(context.Background(), Event{Verb: "v", ObjectType: "o"}))
}

func TestEmitterJoinsHookErrors(t *testing.T) {
	boom := errors.New("sink offline")
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{
		HookFunc(func(context.Context, Event) error { return boom }),
		capture,
	}, Config{Enabled: true})

	err := em.Emit(context.Background(), Event{Verb: "v", ObjectType: "messages", ObjectID: "1"})
	require.ErrorIs(t, err, boom)
	assert.Len(t, capture.Events, 1)
}
