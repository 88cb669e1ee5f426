package reports

import (
	"context"

	"prodstat/analytics"
	"prodstat/database"
)

// ParetoService ranks loss causes over a reporting window.
type ParetoService struct {
	downtime   DowntimeStore
	rejections RejectionStore
}

func NewParetoService(downtime DowntimeStore, rejections RejectionStore) *ParetoService {
	return &ParetoService{downtime: downtime, rejections: rejections}
}

// downtimeLabel names the Pareto bucket for a downtime event. Planned
// categories are prefixed "PDT", unplanned ones carry their owning
// department; events whose category no longer resolves group under
// "Unknown" instead of disappearing from the total.
func downtimeLabel(d database.DowntimeEventDetail) string {
	if d.CategoryName == "" {
		return "Unknown"
	}
	if d.CategoryKind == database.DowntimePDT {
		return "PDT - " + d.CategoryName
	}
	if d.Department != "" {
		return d.Department + " - " + d.CategoryName
	}
	return d.CategoryName
}

func rejectionLabel(d database.RejectionEventDetail) string {
	if d.CriteriaName == "" {
		return "Unknown"
	}
	if d.Category != "" {
		return d.Category + " - " + d.CriteriaName
	}
	return d.CriteriaName
}

// DowntimePareto ranks downtime categories by total minutes lost.
func (s *ParetoService) DowntimePareto(ctx context.Context, f database.Filter) ([]analytics.ParetoEntry, error) {
	events, err := s.downtime.DowntimeInRange(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.ParetoRank(events,
		downtimeLabel,
		func(d database.DowntimeEventDetail) float64 { return float64(d.DurationSec) / 60 },
	), nil
}

// RejectionPareto ranks rejection criteria by rejected quantity.
func (s *ParetoService) RejectionPareto(ctx context.Context, f database.Filter) ([]analytics.ParetoEntry, error) {
	events, err := s.rejections.RejectionsInRange(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.ParetoRank(events,
		rejectionLabel,
		func(d database.RejectionEventDetail) float64 { return float64(d.Qty) },
	), nil
}
