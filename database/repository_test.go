package database

import (
	"context"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Initialize("", "")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return repo
}

func TestUpsertLossTimeIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := LossTimeSummary{
		PlanID:           42,
		PlanWorkingSec:   18000,
		ActualWorkingSec: 16200,
		PDTSec:           1200,
		UPDTSec:          600,
		OverPDTSec:       120,
		SmallStopFreq:    3,
		ComputedAt:       time.Now().UTC(),
	}
	if err := repo.UpsertLossTime(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := first
	second.UPDTSec = 900
	second.SmallStopFreq = 5
	if err := repo.UpsertLossTime(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.LossTimeByPlan(ctx, 42)
	if err != nil {
		t.Fatalf("LossTimeByPlan: %v", err)
	}
	if got == nil {
		t.Fatal("expected a summary row, got nil")
	}
	if got.UPDTSec != 900 || got.SmallStopFreq != 5 {
		t.Errorf("second upsert did not overwrite: got UPDT=%d freq=%d", got.UPDTSec, got.SmallStopFreq)
	}

	var count int
	if err := repo.db.App.QueryRow(`SELECT COUNT(*) FROM loss_time_summaries`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 row after two upserts, got %d", count)
	}
}

func TestUpsertOEEOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := OEERecord{PlanID: 7, Availability: 90, Performance: 95, Quality: 98, OEE: 83.79, ComputedAt: time.Now().UTC()}
	if err := repo.UpsertOEE(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	rec.OEE = 75.5
	if err := repo.UpsertOEE(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.OEEByPlan(ctx, 7)
	if err != nil {
		t.Fatalf("OEEByPlan: %v", err)
	}
	if got == nil || got.OEE != 75.5 {
		t.Errorf("expected overwritten OEE 75.5, got %+v", got)
	}
}

func TestPlansForShiftDayOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plans := []ProductionPlan{
		{ID: 3, PlantID: 1, LineID: 10, ShiftID: 100, PlanDate: "2026-08-01", Sequence: 3, PartNo: "P-3", CycleTimeSec: 30, PlannedQty: 100, Status: PlanOpen},
		{ID: 1, PlantID: 1, LineID: 10, ShiftID: 100, PlanDate: "2026-08-01", Sequence: 1, PartNo: "P-1", CycleTimeSec: 30, PlannedQty: 100, Status: PlanClosed},
		{ID: 2, PlantID: 1, LineID: 10, ShiftID: 100, PlanDate: "2026-08-01", Sequence: 2, PartNo: "P-2", CycleTimeSec: 30, PlannedQty: 100, Status: PlanCanceled},
	}
	if err := repo.InsertPlans(plans); err != nil {
		t.Fatalf("InsertPlans: %v", err)
	}

	got, err := repo.PlansForShiftDay(ctx, "2026-08-01", 10, 100)
	if err != nil {
		t.Fatalf("PlansForShiftDay: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 live plans (canceled excluded), got %d", len(got))
	}
	if got[0].Sequence != 1 || got[1].Sequence != 3 {
		t.Errorf("expected sequence order [1 3], got [%d %d]", got[0].Sequence, got[1].Sequence)
	}
}

func TestShiftByIDMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.ShiftByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("ShiftByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing shift, got %+v", got)
	}
}

func TestDowntimeInRangeResolvesCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveShift(ctx, Shift{ID: 100, LineID: 10, Number: 1, WorkStart: "08:00", WorkEnd: "17:00", LoadingTimeSec: 28800}); err != nil {
		t.Fatalf("SaveShift: %v", err)
	}
	if err := repo.SaveDowntimeCategory(ctx, DowntimeCategory{ID: 5, Kind: DowntimeUPDT, Name: "Conveyor jam", Department: "Maintenance"}); err != nil {
		t.Fatalf("SaveDowntimeCategory: %v", err)
	}
	if err := repo.InsertPlans([]ProductionPlan{
		{ID: 1, PlantID: 1, LineID: 10, ShiftID: 100, PlanDate: "2026-08-01", Sequence: 1, PartNo: "P-1", CycleTimeSec: 30, PlannedQty: 100, Status: PlanClosed},
	}); err != nil {
		t.Fatalf("InsertPlans: %v", err)
	}
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.InsertDowntimeEvents([]DowntimeEvent{
		{ID: 1, PlanID: 1, Kind: DowntimeUPDT, StartTime: start, EndTime: start.Add(10 * time.Minute), DurationSec: 600, CategoryID: 5, MachineID: 3},
	}); err != nil {
		t.Fatalf("InsertDowntimeEvents: %v", err)
	}

	got, err := repo.DowntimeInRange(ctx, Filter{StartDate: "2026-08-01", EndDate: "2026-08-01"})
	if err != nil {
		t.Fatalf("DowntimeInRange: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].CategoryName != "Conveyor jam" || got[0].Department != "Maintenance" {
		t.Errorf("category not resolved: %+v", got[0])
	}
	if got[0].ShiftNumber != 1 {
		t.Errorf("expected shift number 1, got %d", got[0].ShiftNumber)
	}

	filtered, err := repo.DowntimeInRange(ctx, Filter{Department: "Casting"})
	if err != nil {
		t.Fatalf("DowntimeInRange filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("expected department filter to drop the event, got %d", len(filtered))
	}
}
