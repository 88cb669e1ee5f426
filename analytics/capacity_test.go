package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prodstat/database"
)

func TestPlanCapacityGreedyBySequence(t *testing.T) {
	plans := []database.ProductionPlan{
		{ID: 1, Sequence: 1, PlannedQty: 100, CycleTimeSec: 60}, // 6000s
		{ID: 2, Sequence: 2, PlannedQty: 50, CycleTimeSec: 30},  // 1500s
		{ID: 3, Sequence: 3, PlannedQty: 10, CycleTimeSec: 10},  // after target, ignored
	}

	got := PlanCapacity(28800, plans, 3, 0, 20)

	assert.Equal(t, 28800, got.TotalLoadingTimeSec)
	assert.Equal(t, 7500, got.UsedTimeSec)
	assert.Equal(t, 21300, got.AvailableTimeSec)
	assert.Equal(t, 21300/20, got.MaxPlannedQty)
}

func TestPlanCapacityExcludesPlanBeingEdited(t *testing.T) {
	plans := []database.ProductionPlan{
		{ID: 1, Sequence: 1, PlannedQty: 100, CycleTimeSec: 60},
		{ID: 2, Sequence: 2, PlannedQty: 200, CycleTimeSec: 60},
	}

	// Editing plan 2 at a later sequence: its own old allocation must
	// not shrink the budget it is re-planned against.
	got := PlanCapacity(28800, plans, 3, 2, 60)
	assert.Equal(t, 6000, got.UsedTimeSec)

	created := PlanCapacity(28800, plans, 3, 0, 60)
	assert.Equal(t, 18000, created.UsedTimeSec)
}

func TestPlanCapacityOverbookedFloorsAtZero(t *testing.T) {
	plans := []database.ProductionPlan{
		{ID: 1, Sequence: 1, PlannedQty: 1000, CycleTimeSec: 60},
	}

	got := PlanCapacity(28800, plans, 2, 0, 30)

	assert.Equal(t, 60000, got.UsedTimeSec)
	assert.Equal(t, 0, got.AvailableTimeSec)
	assert.Equal(t, 0, got.MaxPlannedQty)
}

func TestPlanCapacityZeroCycleTime(t *testing.T) {
	got := PlanCapacity(28800, nil, 1, 0, 0)

	assert.Equal(t, 28800, got.AvailableTimeSec)
	assert.Equal(t, 0, got.MaxPlannedQty)
}
