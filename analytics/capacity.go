package analytics

import "prodstat/database"

// Capacity is the result of allocating a shift's remaining time budget
// to a candidate plan sequence.
type Capacity struct {
	TotalLoadingTimeSec int `json:"total_loading_time_sec"`
	UsedTimeSec         int `json:"used_time_sec"`
	AvailableTimeSec    int `json:"available_time_sec"`
	MaxPlannedQty       int `json:"max_planned_qty"`
}

// PlanCapacity computes the time budget left for a plan at targetSequence
// on a shift with the given loading time. Time is consumed greedily in
// ascending sequence order: every plan with a lower sequence charges
// plannedQty x cycleTime against the budget. The plan being edited
// (excludePlanID, 0 when creating) never counts against itself.
//
// This is a pure fold over the caller-supplied plan list; re-sequencing a
// plan moves its position in that ordering and it is the caller's job to
// recompute every sequence at or after the moved position.
func PlanCapacity(loadingTimeSec int, plans []database.ProductionPlan, targetSequence int, excludePlanID int64, cycleTimeSec int) Capacity {
	used := 0
	for _, p := range plans {
		if p.Sequence >= targetSequence {
			continue
		}
		if excludePlanID != 0 && p.ID == excludePlanID {
			continue
		}
		used += p.PlannedQty * p.CycleTimeSec
	}

	available := loadingTimeSec - used
	if available < 0 {
		available = 0
	}

	maxQty := 0
	if cycleTimeSec > 0 {
		maxQty = available / cycleTimeSec
	}

	return Capacity{
		TotalLoadingTimeSec: loadingTimeSec,
		UsedTimeSec:         used,
		AvailableTimeSec:    available,
		MaxPlannedQty:       maxQty,
	}
}
