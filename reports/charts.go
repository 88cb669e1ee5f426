package reports

import (
	"context"

	"prodstat/analytics"
	"prodstat/database"
)

// ChartService assembles the (date, shift) matrices the chart endpoints
// render. Achievement and OEE charts cover closed plans that have a
// computed OEE record; event charts cover everything logged in range.
type ChartService struct {
	plans      PlanStore
	downtime   DowntimeStore
	rejections RejectionStore
}

func NewChartService(plans PlanStore, downtime DowntimeStore, rejections RejectionStore) *ChartService {
	return &ChartService{plans: plans, downtime: downtime, rejections: rejections}
}

// AchievementBuckets averages per-plan achievement (actual/planned, as a
// percentage) into each (date, shift) cell.
func (s *ChartService) AchievementBuckets(ctx context.Context, f database.Filter) (analytics.Buckets, error) {
	rows, err := s.plans.OEEReportRows(ctx, f)
	if err != nil {
		return nil, err
	}

	m := analytics.NewMeanBuckets()
	for _, r := range rows {
		if r.PlannedQty <= 0 {
			continue
		}
		m.Add(r.PlanDate, r.ShiftNumber, float64(r.ActualQty)/float64(r.PlannedQty)*100)
	}
	return m.Mean(), nil
}

// OEEBuckets averages per-plan OEE scores into each (date, shift) cell.
func (s *ChartService) OEEBuckets(ctx context.Context, f database.Filter) (analytics.Buckets, error) {
	rows, err := s.plans.OEEReportRows(ctx, f)
	if err != nil {
		return nil, err
	}

	m := analytics.NewMeanBuckets()
	for _, r := range rows {
		m.Add(r.PlanDate, r.ShiftNumber, r.OEE)
	}
	return m.Mean(), nil
}

// RejectionBuckets sums rejected quantities per (date, shift).
func (s *ChartService) RejectionBuckets(ctx context.Context, f database.Filter) (analytics.Buckets, error) {
	events, err := s.rejections.RejectionsInRange(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.BucketByDateAndShift(events,
		func(e database.RejectionEventDetail) string { return e.PlanDate },
		func(e database.RejectionEventDetail) int { return e.ShiftNumber },
		func(e database.RejectionEventDetail) float64 { return float64(e.Qty) },
	), nil
}

// LossTimeBuckets sums downtime minutes per (date, shift).
func (s *ChartService) LossTimeBuckets(ctx context.Context, f database.Filter) (analytics.Buckets, error) {
	events, err := s.downtime.DowntimeInRange(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.BucketByDateAndShift(events,
		func(e database.DowntimeEventDetail) string { return e.PlanDate },
		func(e database.DowntimeEventDetail) int { return e.ShiftNumber },
		func(e database.DowntimeEventDetail) float64 { return float64(e.DurationSec) / 60 },
	), nil
}
