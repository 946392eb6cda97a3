package storefront

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	renders int
	keys    []string
}

func (c *countingCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	c.keys = append(c.keys, key)
	c.renders++
	return render()
}

func TestOverviewCountsAndChart(t *testing.T) {
	f := mountedFixture(t)
	cache := &countingCache{}
	renderer := NewOverviewRenderer(WithOverviewCache(cache))

	overview, err := renderer.Build(context.Background(), f.dashboard.Store())
	require.NoError(t, err)

	assert.Equal(t, 2, overview.Counts[ResourceProducts])
	assert.Equal(t, 3, overview.Counts[ResourceOrders])
	assert.Equal(t, []StatusCount{
		{Status: OrderStatusNew, Count: 1},
		{Status: OrderStatusInProgress, Count: 1},
		{Status: OrderStatusCompleted, Count: 1},
	}, overview.StatusCounts)
	assert.Contains(t, overview.ChartHTML, "Orders by status")
	assert.Equal(t, 1, cache.renders)
}

func TestOverviewCacheKeyFollowsCounts(t *testing.T) {
	f := mountedFixture(t)
	cache := &countingCache{}
	renderer := NewOverviewRenderer(WithOverviewCache(cache))
	ctx := context.Background()

	_, err := renderer.Build(ctx, f.dashboard.Store())
	require.NoError(t, err)
	_, err = renderer.Build(ctx, f.dashboard.Store())
	require.NoError(t, err)
	require.NoError(t, f.dashboard.UpdateOrderStatus(ctx, "1", OrderStatusCompleted))
	_, err = renderer.Build(ctx, f.dashboard.Store())
	require.NoError(t, err)

	require.Len(t, cache.keys, 3)
	assert.Equal(t, cache.keys[0], cache.keys[1])
	assert.NotEqual(t, cache.keys[1], cache.keys[2])
}

func TestCountStatusesKeepsUnknownValues(t *testing.T) {
	counts := countStatuses([]Order{
		{Status: "new"},
		{Status: "In Progress"},
		{Status: "archived"},
	})
	require.Len(t, counts, 4)
	assert.Equal(t, 1, counts[1].Count)
	assert.Equal(t, StatusCount{Status: "archived", Count: 1}, counts[3])
}
