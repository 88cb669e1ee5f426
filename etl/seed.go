package etl

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"prodstat/analytics"
	"prodstat/config"
	"prodstat/database"
)

// Seeder generates a demo dataset: lines with two shifts each (the
// second one overnight), sequenced plans per shift day and event logs
// whose loss pattern follows a slow sine wave so the trend charts show
// something other than noise.
type Seeder struct {
	config *config.SeedConfig
	repo   *database.Repository
	rand   *rand.Rand

	nextID int64
}

func NewSeeder(cfg *config.SeedConfig, repo *database.Repository) *Seeder {
	return &Seeder{
		config: cfg,
		repo:   repo,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1,
	}
}

func (s *Seeder) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

var seedDowntimeCategories = []database.DowntimeCategory{
	{ID: 1, Kind: database.DowntimePDT, Name: "Changeover", DefaultDurationMin: 20},
	{ID: 2, Kind: database.DowntimePDT, Name: "Scheduled maintenance", DefaultDurationMin: 30},
	{ID: 3, Kind: database.DowntimeUPDT, Name: "Conveyor jam", Department: "Maintenance"},
	{ID: 4, Kind: database.DowntimeUPDT, Name: "Material shortage", Department: "Logistics"},
	{ID: 5, Kind: database.DowntimeUPDT, Name: "Sensor fault", Department: "Maintenance"},
	{ID: 6, Kind: database.DowntimeUPDT, Name: "Quality hold", Department: "Quality"},
}

var seedRejectionCriteria = []database.RejectionCriteria{
	{ID: 1, Name: "Scratch", Category: "Surface"},
	{ID: 2, Name: "Dent", Category: "Surface"},
	{ID: 3, Name: "Dimension out of spec", Category: "Machining"},
	{ID: 4, Name: "Porosity", Category: "Casting"},
}

// Seed populates master data and event history. Counts per table are
// returned for the API response.
func (s *Seeder) Seed(ctx context.Context) (map[string]int, error) {
	lineNames := s.config.Lines
	if len(lineNames) == 0 {
		lineNames = []string{"Casting-1", "Machining-1"}
	}
	partNumbers := s.config.PartNumbers
	if len(partNumbers) == 0 {
		partNumbers = []string{"PN-1001", "PN-1002", "PN-2001"}
	}

	for _, c := range seedDowntimeCategories {
		if err := s.repo.SaveDowntimeCategory(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to seed downtime category: %w", err)
		}
	}
	for _, c := range seedRejectionCriteria {
		if err := s.repo.SaveRejectionCriteria(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to seed rejection criteria: %w", err)
		}
	}

	var shifts []database.Shift
	for i, name := range lineNames {
		lineID := int64(i + 1)
		if err := s.repo.SaveLine(ctx, database.Line{ID: lineID, PlantID: 1, Name: name}); err != nil {
			return nil, fmt.Errorf("failed to seed line: %w", err)
		}

		day := database.Shift{
			ID: lineID*10 + 1, LineID: lineID, Number: 1,
			WorkStart: "08:00", WorkEnd: "20:00",
			Break1Start: "12:00", Break1End: "12:45",
			Break2Start: "17:00", Break2End: "17:15",
		}
		night := database.Shift{
			ID: lineID*10 + 2, LineID: lineID, Number: 2,
			WorkStart: "20:00", WorkEnd: "08:00",
			Break1Start: "00:00", Break1End: "00:45",
			Break2Start: "05:00", Break2End: "05:15",
		}
		for _, sh := range []database.Shift{day, night} {
			sh.LoadingTimeSec = analytics.ShiftLoadingTime(sh)
			if err := s.repo.SaveShift(ctx, sh); err != nil {
				return nil, fmt.Errorf("failed to seed shift: %w", err)
			}
			shifts = append(shifts, sh)
		}
	}

	var plans []database.ProductionPlan
	var downtime []database.DowntimeEvent
	var planned []database.PlannedDowntimeEvent
	var rejections []database.RejectionEvent

	startDate := time.Now().AddDate(0, 0, -s.config.TimeRangeDays)
	for day := 0; day < s.config.TimeRangeDays; day++ {
		date := startDate.AddDate(0, 0, day)

		// A slow wave moves the unplanned-loss level between good and
		// bad weeks; noise keeps individual shifts apart.
		wave := 0.5 + 0.4*math.Sin(float64(day)*2*math.Pi/14)

		for _, shift := range shifts {
			for seq := 1; seq <= s.config.PlansPerShift; seq++ {
				p, d, pd, rj := s.buildPlanDay(date, shift, seq, partNumbers, wave)
				plans = append(plans, p)
				downtime = append(downtime, d...)
				planned = append(planned, pd...)
				rejections = append(rejections, rj...)
			}
		}
	}

	if err := s.repo.InsertPlans(plans); err != nil {
		return nil, fmt.Errorf("failed to seed plans: %w", err)
	}
	if err := s.repo.InsertDowntimeEvents(downtime); err != nil {
		return nil, fmt.Errorf("failed to seed downtime events: %w", err)
	}
	if err := s.repo.InsertPlannedDowntimeEvents(planned); err != nil {
		return nil, fmt.Errorf("failed to seed planned downtime: %w", err)
	}
	if err := s.repo.InsertRejectionEvents(rejections); err != nil {
		return nil, fmt.Errorf("failed to seed rejections: %w", err)
	}

	return map[string]int{
		"lines":                   len(lineNames),
		"shifts":                  len(shifts),
		"production_plans":        len(plans),
		"downtime_events":         len(downtime),
		"planned_downtime_events": len(planned),
		"rejection_events":        len(rejections),
	}, nil
}

// buildPlanDay creates one closed plan with an event log consistent
// with its quantities: the actual quantity is what the cycle time
// could produce in the time left after the generated downtime.
func (s *Seeder) buildPlanDay(date time.Time, shift database.Shift, seq int, partNumbers []string, wave float64) (database.ProductionPlan, []database.DowntimeEvent, []database.PlannedDowntimeEvent, []database.RejectionEvent) {
	planID := s.id()
	dateStr := date.Format("2006-01-02")
	shiftStart := date.Add(time.Duration(8+12*(shift.Number-1)) * time.Hour)

	// Share of the shift this sequence position gets.
	budget := shift.LoadingTimeSec / s.config.PlansPerShift
	cycle := 20 + s.rand.Intn(40)
	plannedQty := budget * 85 / 100 / cycle

	var downtime []database.DowntimeEvent
	var planned []database.PlannedDowntimeEvent

	// One planned changeover per plan, occasionally overrunning.
	cat := seedDowntimeCategories[s.rand.Intn(2)]
	pdtDur := cat.DefaultDurationMin * 60
	overrun := 0
	if s.rand.Float64() < 0.3 {
		overrun = 60 + s.rand.Intn(540)
	}
	planned = append(planned, database.PlannedDowntimeEvent{
		ID: s.id(), PlanID: planID, CategoryID: cat.ID,
		StartTime: shiftStart, DurationSec: pdtDur, OverPDTDurationSec: overrun,
	})

	// Unplanned stoppages scale with the wave. A few short ones become
	// small stops, sometimes a long breakdown.
	updtTotal := 0
	stops := 1 + int(wave*4) + s.rand.Intn(2)
	cursor := shiftStart.Add(time.Hour)
	for i := 0; i < stops; i++ {
		dur := 60 + s.rand.Intn(240) // mostly small stops
		if s.rand.Float64() < wave*0.4 {
			dur = 600 + s.rand.Intn(1800)
		}
		updtCat := seedDowntimeCategories[2+s.rand.Intn(4)]
		downtime = append(downtime, database.DowntimeEvent{
			ID: s.id(), PlanID: planID, Kind: database.DowntimeUPDT,
			StartTime: cursor, EndTime: cursor.Add(time.Duration(dur) * time.Second),
			DurationSec: dur, CategoryID: updtCat.ID, MachineID: int64(1 + s.rand.Intn(5)),
		})
		updtTotal += dur
		cursor = cursor.Add(time.Duration(dur+600) * time.Second)
	}

	// Production the remaining time actually allows.
	working := budget - pdtDur - overrun - updtTotal
	if working < 0 {
		working = 0
	}
	actualQty := working / cycle
	if actualQty > plannedQty {
		actualQty = plannedQty
	}

	ngQty := 0
	var rejections []database.RejectionEvent
	if actualQty > 0 {
		ngQty = int(float64(actualQty) * (0.01 + wave*0.04))
		remaining := ngQty
		for remaining > 0 {
			qty := 1 + s.rand.Intn(remaining)
			crit := seedRejectionCriteria[s.rand.Intn(len(seedRejectionCriteria))]
			rejections = append(rejections, database.RejectionEvent{
				ID: s.id(), PlanID: planID,
				OccurredAt: shiftStart.Add(time.Duration(s.rand.Intn(10)) * time.Hour),
				Qty:        qty, CriteriaID: crit.ID,
			})
			remaining -= qty
		}
	}

	started := shiftStart
	completed := shiftStart.Add(time.Duration(budget) * time.Second)
	plan := database.ProductionPlan{
		ID: planID, PlantID: 1, LineID: shift.LineID, ShiftID: shift.ID,
		PlanDate: dateStr, Sequence: seq,
		PartNo:       partNumbers[s.rand.Intn(len(partNumbers))],
		CycleTimeSec: cycle, PlannedQty: plannedQty,
		ActualQty: actualQty, NGQty: ngQty,
		Status: database.PlanClosed, StartedAt: &started, CompletedAt: &completed,
	}
	return plan, downtime, planned, rejections
}
