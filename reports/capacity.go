package reports

import (
	"context"

	"prodstat/analytics"
)

// CapacityService answers "how much of this shift is still free for a
// plan at this sequence position".
type CapacityService struct {
	shifts ShiftStore
	plans  PlanStore
}

func NewCapacityService(shifts ShiftStore, plans PlanStore) *CapacityService {
	return &CapacityService{shifts: shifts, plans: plans}
}

// CapacityRequest describes the plan being created or edited.
// ExcludePlanID is the plan's own id when editing, 0 when creating.
type CapacityRequest struct {
	PlanDate       string `json:"plan_date"`
	ShiftID        int64  `json:"shift_id"`
	TargetSequence int    `json:"target_sequence"`
	ExcludePlanID  int64  `json:"exclude_plan_id"`
	CycleTimeSec   int    `json:"cycle_time_sec"`
}

// AvailableTime resolves the shift's loading time and folds the
// competing plans into a capacity figure. A missing shift is a
// NotFoundError, never a zero-capacity answer the caller could mistake
// for a full shift.
func (s *CapacityService) AvailableTime(ctx context.Context, req CapacityRequest) (*analytics.Capacity, error) {
	shift, err := s.shifts.ShiftByID(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, notFound("shift", req.ShiftID)
	}

	loading := shift.LoadingTimeSec
	if loading == 0 {
		loading = analytics.ShiftLoadingTime(*shift)
	}

	plans, err := s.plans.PlansForShiftDay(ctx, req.PlanDate, shift.LineID, shift.ID)
	if err != nil {
		return nil, err
	}

	cap := analytics.PlanCapacity(loading, plans, req.TargetSequence, req.ExcludePlanID, req.CycleTimeSec)
	return &cap, nil
}
