package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) (int, error) { return 0, nil }

func TestStageGraphPipelineOrder(t *testing.T) {
	r := &run{}
	graph, err := r.stages()
	require.NoError(t, err)

	order, err := graph.BuildOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{
		TableStores, TableCustomers, TableIngredients, TableMenuItems,
		TableItemIngredients, TableOrders, TableOrderItems,
	}, order)
	assert.Equal(t, order, graph.Order())
}

func TestStageGraphDependenciesFirst(t *testing.T) {
	graph := NewStageGraph()
	require.NoError(t, graph.Add(&Stage{Name: "order_items", DependsOn: []string{"orders", "menu"}, Run: noop}))
	require.NoError(t, graph.Add(&Stage{Name: "orders", DependsOn: []string{"stores"}, Run: noop}))
	require.NoError(t, graph.Add(&Stage{Name: "menu", Run: noop}))
	require.NoError(t, graph.Add(&Stage{Name: "stores", Run: noop}))

	order, err := graph.BuildOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"stores", "orders", "menu", "order_items"}, order)
}

func TestStageGraphRejectsCycles(t *testing.T) {
	graph := NewStageGraph()
	require.NoError(t, graph.Add(&Stage{Name: "a", DependsOn: []string{"b"}, Run: noop}))
	require.NoError(t, graph.Add(&Stage{Name: "b", DependsOn: []string{"a"}, Run: noop}))

	_, err := graph.BuildOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestStageGraphRejectsUnknownDependency(t *testing.T) {
	graph := NewStageGraph()
	require.NoError(t, graph.Add(&Stage{Name: "orders", DependsOn: []string{"stores"}, Run: noop}))

	_, err := graph.BuildOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage stores")
}

func TestStageGraphRejectsDuplicates(t *testing.T) {
	graph := NewStageGraph()
	require.NoError(t, graph.Add(&Stage{Name: "stores", Run: noop}))
	assert.Error(t, graph.Add(&Stage{Name: "stores", Run: noop}))
	assert.Error(t, graph.Add(&Stage{Run: noop}))
}
