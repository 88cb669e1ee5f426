package reports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodstat/database"
	"prodstat/jobs"
)

// fakeStore backs every store interface in memory. Guarded by a mutex
// because batch recompute writes from a worker goroutine.
type fakeStore struct {
	mu sync.Mutex

	shifts          map[int64]database.Shift
	plans           map[int64]database.ProductionPlan
	shiftDayPlans   []database.ProductionPlan
	closed          []database.ProductionPlan
	reportRows      []database.OEEReportRow
	downtime        map[int64][]database.DowntimeEvent
	planned         map[int64][]database.PlannedDowntimeEvent
	downtimeDetails []database.DowntimeEventDetail
	rejections      []database.RejectionEventDetail

	lossTimes map[int64]database.LossTimeSummary
	oees      map[int64]database.OEERecord
	jobsByID  map[string]database.RecomputeJob
	jobErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shifts:    make(map[int64]database.Shift),
		plans:     make(map[int64]database.ProductionPlan),
		downtime:  make(map[int64][]database.DowntimeEvent),
		planned:   make(map[int64][]database.PlannedDowntimeEvent),
		lossTimes: make(map[int64]database.LossTimeSummary),
		oees:      make(map[int64]database.OEERecord),
		jobsByID:  make(map[string]database.RecomputeJob),
	}
}

func (f *fakeStore) ShiftByID(_ context.Context, id int64) (*database.Shift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.shifts[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeStore) PlanByID(_ context.Context, id int64) (*database.ProductionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.plans[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeStore) PlansForShiftDay(context.Context, string, int64, int64) ([]database.ProductionPlan, error) {
	return f.shiftDayPlans, nil
}

func (f *fakeStore) ClosedPlans(context.Context, database.Filter) ([]database.ProductionPlan, error) {
	return f.closed, nil
}

func (f *fakeStore) OEEReportRows(context.Context, database.Filter) ([]database.OEEReportRow, error) {
	return f.reportRows, nil
}

func (f *fakeStore) DowntimeByPlan(_ context.Context, planID int64) ([]database.DowntimeEvent, error) {
	return f.downtime[planID], nil
}

func (f *fakeStore) PlannedDowntimeByPlan(_ context.Context, planID int64) ([]database.PlannedDowntimeEvent, error) {
	return f.planned[planID], nil
}

func (f *fakeStore) DowntimeInRange(context.Context, database.Filter) ([]database.DowntimeEventDetail, error) {
	return f.downtimeDetails, nil
}

func (f *fakeStore) RejectionsInRange(context.Context, database.Filter) ([]database.RejectionEventDetail, error) {
	return f.rejections, nil
}

func (f *fakeStore) UpsertLossTime(_ context.Context, s database.LossTimeSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lossTimes[s.PlanID] = s
	return nil
}

func (f *fakeStore) UpsertOEE(_ context.Context, rec database.OEERecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.oees[rec.PlanID] = rec
	return nil
}

func (f *fakeStore) CreateRecomputeJob(jobID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobsByID[jobID] = database.RecomputeJob{JobID: jobID, Status: status}
	return nil
}

func (f *fakeStore) UpdateRecomputeJob(jobID, status, errMsg string, done, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobsByID[jobID] = database.RecomputeJob{
		JobID: jobID, Status: status, ErrorMessage: errMsg,
		DonePlans: done, TotalPlans: total,
	}
	return nil
}

func (f *fakeStore) RecomputeJobByID(jobID string) (*database.RecomputeJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	j, ok := f.jobsByID[jobID]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

// ---- capacity ----

func TestAvailableTimeMissingShift(t *testing.T) {
	svc := NewCapacityService(newFakeStore(), newFakeStore())

	_, err := svc.AvailableTime(context.Background(), CapacityRequest{ShiftID: 99})

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestAvailableTimeComputesFromStoredLoadingTime(t *testing.T) {
	store := newFakeStore()
	store.shifts[1] = database.Shift{ID: 1, LineID: 10, LoadingTimeSec: 28800}
	store.shiftDayPlans = []database.ProductionPlan{
		{ID: 5, Sequence: 1, PlannedQty: 100, CycleTimeSec: 60},
	}
	svc := NewCapacityService(store, store)

	got, err := svc.AvailableTime(context.Background(), CapacityRequest{
		PlanDate: "2026-08-01", ShiftID: 1, TargetSequence: 2, CycleTimeSec: 30,
	})

	require.NoError(t, err)
	assert.Equal(t, 28800-6000, got.AvailableTimeSec)
	assert.Equal(t, (28800-6000)/30, got.MaxPlannedQty)
}

func TestAvailableTimeDerivesLoadingTimeWhenUnset(t *testing.T) {
	store := newFakeStore()
	store.shifts[1] = database.Shift{ID: 1, LineID: 10, WorkStart: "08:00", WorkEnd: "16:00"}
	svc := NewCapacityService(store, store)

	got, err := svc.AvailableTime(context.Background(), CapacityRequest{
		PlanDate: "2026-08-01", ShiftID: 1, TargetSequence: 1, CycleTimeSec: 60,
	})

	require.NoError(t, err)
	assert.Equal(t, 8*3600, got.TotalLoadingTimeSec)
}

// ---- recompute ----

func recomputeFixture() *fakeStore {
	store := newFakeStore()
	store.shifts[1] = database.Shift{ID: 1, LineID: 10, LoadingTimeSec: 28800}
	store.plans[5] = database.ProductionPlan{
		ID: 5, ShiftID: 1, PlanDate: "2026-08-01",
		PlannedQty: 100, ActualQty: 90, NGQty: 5, Status: database.PlanClosed,
	}
	store.downtime[5] = []database.DowntimeEvent{
		{Kind: database.DowntimeUPDT, DurationSec: 1200},
	}
	store.planned[5] = []database.PlannedDowntimeEvent{
		{DurationSec: 1800, OverPDTDurationSec: 300},
	}
	return store
}

func TestRecomputePlanStoresBothRows(t *testing.T) {
	store := recomputeFixture()
	svc := NewRecomputeService(store, store, store, store, nil)

	rec, err := svc.RecomputePlan(context.Background(), 5)
	require.NoError(t, err)

	loss := store.lossTimes[5]
	assert.Equal(t, 1800, loss.PDTSec)
	assert.Equal(t, 1500, loss.UPDTSec, "UPDT event plus the over-PDT overrun")
	assert.Equal(t, 28800-1800, loss.PlanWorkingSec)
	assert.Equal(t, 28800-1800-1500, loss.ActualWorkingSec)

	assert.Equal(t, rec.OEE, store.oees[5].OEE)
	assert.InDelta(t, 94.44, rec.Quality, 0.001)
}

func TestRecomputePlanIsIdempotent(t *testing.T) {
	store := recomputeFixture()
	svc := NewRecomputeService(store, store, store, store, nil)
	ctx := context.Background()

	first, err := svc.RecomputePlan(ctx, 5)
	require.NoError(t, err)
	second, err := svc.RecomputePlan(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, first.Availability, second.Availability)
	assert.Equal(t, first.OEE, second.OEE)
	assert.Len(t, store.oees, 1)
}

func TestRecomputePlanMissingPlan(t *testing.T) {
	store := newFakeStore()
	svc := NewRecomputeService(store, store, store, store, nil)

	_, err := svc.RecomputePlan(context.Background(), 404)

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRecomputeClosedPlansBatch(t *testing.T) {
	store := recomputeFixture()
	store.closed = []database.ProductionPlan{store.plans[5]}

	pool := jobs.NewWorkerPool(1)
	defer pool.Stop()
	svc := NewRecomputeService(store, store, store, store, pool)

	jobID, err := svc.RecomputeClosedPlans(context.Background(), database.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := svc.JobStatus(jobID)
		require.NoError(t, err)
		if job.Status == JobCompleted {
			assert.Equal(t, 1, job.DonePlans)
			assert.Equal(t, 1, job.TotalPlans)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s never completed, status %s", jobID, job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.oees, int64(5))
}

func TestJobStatusMissingJob(t *testing.T) {
	store := newFakeStore()
	svc := NewRecomputeService(store, store, store, store, nil)

	_, err := svc.JobStatus("no-such-job")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestJobStatusStorageErrorIsNotNotFound(t *testing.T) {
	store := newFakeStore()
	store.jobErr = errors.New("disk I/O error")
	svc := NewRecomputeService(store, store, store, store, nil)

	_, err := svc.JobStatus("any")

	require.Error(t, err)
	assert.False(t, IsNotFound(err), "storage failures must not surface as not-found")
	assert.EqualError(t, err, "disk I/O error")
}

// ---- pareto ----

func TestDowntimeParetoLabels(t *testing.T) {
	store := newFakeStore()
	store.downtimeDetails = []database.DowntimeEventDetail{
		{DowntimeEvent: database.DowntimeEvent{DurationSec: 600}, CategoryName: "Changeover", CategoryKind: database.DowntimePDT},
		{DowntimeEvent: database.DowntimeEvent{DurationSec: 1200}, CategoryName: "Jam", CategoryKind: database.DowntimeUPDT, Department: "Maintenance"},
		{DowntimeEvent: database.DowntimeEvent{DurationSec: 300}},
	}
	svc := NewParetoService(store, store)

	got, err := svc.DowntimePareto(context.Background(), database.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Maintenance - Jam", got[0].Category)
	assert.Equal(t, 20.0, got[0].Magnitude, "magnitudes are minutes")
	assert.Equal(t, "PDT - Changeover", got[1].Category)
	assert.Equal(t, "Unknown", got[2].Category)
	assert.Equal(t, 100.0, got[2].Cumulative)
}

func TestRejectionParetoLabels(t *testing.T) {
	store := newFakeStore()
	store.rejections = []database.RejectionEventDetail{
		{RejectionEvent: database.RejectionEvent{Qty: 8}, CriteriaName: "Scratch", Category: "Surface"},
		{RejectionEvent: database.RejectionEvent{Qty: 2}},
	}
	svc := NewParetoService(store, store)

	got, err := svc.RejectionPareto(context.Background(), database.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Surface - Scratch", got[0].Category)
	assert.Equal(t, 8.0, got[0].Magnitude)
	assert.Equal(t, "Unknown", got[1].Category)
}

// ---- charts ----

func TestChartBuckets(t *testing.T) {
	store := newFakeStore()
	store.reportRows = []database.OEEReportRow{
		{PlanDate: "2026-08-01", ShiftNumber: 1, PlannedQty: 100, ActualQty: 90, OEE: 80},
		{PlanDate: "2026-08-01", ShiftNumber: 1, PlannedQty: 100, ActualQty: 100, OEE: 90},
		{PlanDate: "2026-08-02", ShiftNumber: 2, PlannedQty: 50, ActualQty: 25, OEE: 40},
	}
	store.rejections = []database.RejectionEventDetail{
		{RejectionEvent: database.RejectionEvent{Qty: 3}, PlanDate: "2026-08-01", ShiftNumber: 1},
		{RejectionEvent: database.RejectionEvent{Qty: 4}, PlanDate: "2026-08-01", ShiftNumber: 1},
	}
	svc := NewChartService(store, store, store)
	ctx := context.Background()

	ach, err := svc.AchievementBuckets(ctx, database.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 95.0, ach["2026-08-01"][1])
	assert.Equal(t, 50.0, ach["2026-08-02"][2])

	oee, err := svc.OEEBuckets(ctx, database.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 85.0, oee["2026-08-01"][1])

	rej, err := svc.RejectionBuckets(ctx, database.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, rej["2026-08-01"][1])
}
