package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksTrimAndDropIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{nil, capture}

	require.NoError(t, hooks.Notify(context.Background(), Event{}))
	require.NoError(t, hooks.Notify(context.Background(), Event{Verb: "delete"}))
	assert.Empty(t, capture.Events)

	require.NoError(t, hooks.Notify(context.Background(), Event{
		Verb:       " storefront.products.delete ",
		ObjectType: " products ",
		ObjectID:   " 42 ",
	}))
	require.Len(t, capture.Events, 1)
	evt := capture.Events[0]
	assert.Equal(t, "storefront.products.delete", evt.Verb)
	assert.Equal(t, "products", evt.ObjectType)
	assert.Equal(t, "42", evt.ObjectID)
	assert.NotNil(t, evt.Metadata)
}

func TestNormalizeEventCopiesCollections(t *testing.T) {
	occurred := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	evt := Event{
		Verb:       "storefront.order.placed",
		ObjectType: "orders",
		Metadata:   map[string]any{"product_id": "5"},
		Recipients: []string{"admin@example.com"},
		OccurredAt: occurred,
	}
	n := NormalizeEvent(evt)

	n.Metadata["product_id"] = "7"
	n.Recipients[0] = "other@example.com"
	assert.Equal(t, "5", evt.Metadata["product_id"])
	assert.Equal(t, "admin@example.com", evt.Recipients[0])
	assert.True(t, n.OccurredAt.Equal(occurred))
}
