package tools

import (
	"context"
	"testing"

	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerAvailability_SufficientAndInsufficient(t *testing.T) {
	ds := datasource.NewMemory(datasource.FactSet{
		"available_workers": {
			{"location": "Zone-A", "count": 3},
			{"location": "Zone-A", "count": 2},
		},
	})
	tool := WorkerAvailability("available_workers")

	result := tool(context.Background(), ds, map[string]any{"location": "Zone-A", "required": 5})
	require.Empty(t, result.Error)
	assert.Equal(t, 5, result.Data["available"])
	assert.Equal(t, true, result.Data["sufficient"])

	result = tool(context.Background(), ds, map[string]any{"location": "Zone-A", "required": 6})
	assert.Equal(t, false, result.Data["sufficient"])
}

func TestBudgetCheck_ComputesUtilisation(t *testing.T) {
	ds := datasource.NewMemory(datasource.FactSet{
		"budgets": {
			{"location": "Zone-A", "remaining": 100000.0, "limit": 300000.0},
		},
	})
	tool := BudgetCheck("budgets")

	result := tool(context.Background(), ds, map[string]any{"location": "Zone-A", "cost": 50000.0})
	require.Empty(t, result.Error)
	assert.Equal(t, true, result.Data["sufficient"])
	assert.InDelta(t, 66.66, result.Data["utilisation_pct"].(float64), 0.1)

	result = tool(context.Background(), ds, map[string]any{"location": "Zone-A", "cost": 999999.0})
	assert.Equal(t, false, result.Data["sufficient"])
}

func TestInfrastructureCondition_ReportsWorst(t *testing.T) {
	ds := datasource.NewMemory(datasource.FactSet{
		"pipes": {
			{"location": "Zone-A", "condition": "fair"},
			{"location": "Zone-A", "condition": "critical"},
		},
	})
	tool := InfrastructureCondition("pipes")

	result := tool(context.Background(), ds, map[string]any{"location": "Zone-A"})
	require.Empty(t, result.Error)
	assert.Equal(t, "critical", result.Data["condition"])
}

func TestRegistry_InvokeUnknownToolReturnsErrorNotPanic(t *testing.T) {
	r := Registry{}
	result := r.Invoke(context.Background(), datasource.NewMemory(nil), "ghost", nil)
	assert.NotEmpty(t, result.Error)
}

func TestRegistry_Names(t *testing.T) {
	r := Registry{"a": WorkerAvailability("x"), "b": BudgetCheck("y")}
	names := r.Names()
	assert.True(t, names["a"])
	assert.True(t, names["b"])
	assert.False(t, names["c"])
}
