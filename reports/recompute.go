package reports

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prodstat/analytics"
	"prodstat/database"
	"prodstat/jobs"
)

// Job statuses as stored in recompute_jobs.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// RecomputeService rebuilds the derived loss-time and OEE rows for
// closed plans, one plan at a time or as an async batch.
type RecomputeService struct {
	shifts    ShiftStore
	plans     PlanStore
	downtime  DowntimeStore
	summaries SummaryStore
	pool      *jobs.WorkerPool
}

func NewRecomputeService(shifts ShiftStore, plans PlanStore, downtime DowntimeStore, summaries SummaryStore, pool *jobs.WorkerPool) *RecomputeService {
	return &RecomputeService{
		shifts:    shifts,
		plans:     plans,
		downtime:  downtime,
		summaries: summaries,
		pool:      pool,
	}
}

// RecomputePlan recomputes one plan's loss breakdown and OEE record and
// overwrites whatever was stored before. Running it twice on unchanged
// events produces identical rows.
func (s *RecomputeService) RecomputePlan(ctx context.Context, planID int64) (*database.OEERecord, error) {
	plan, err := s.plans.PlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, notFound("plan", planID)
	}

	shift, err := s.shifts.ShiftByID(ctx, plan.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, notFound("shift", plan.ShiftID)
	}

	var downtime []database.DowntimeEvent
	var planned []database.PlannedDowntimeEvent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		downtime, err = s.downtime.DowntimeByPlan(gctx, planID)
		return err
	})
	g.Go(func() error {
		var err error
		planned, err = s.downtime.PlannedDowntimeByPlan(gctx, planID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load events for plan %d: %w", planID, err)
	}

	now := time.Now().UTC()
	loss := analytics.Decompose(*shift, downtime, planned)
	if err := s.summaries.UpsertLossTime(ctx, database.LossTimeSummary{
		PlanID:           planID,
		PlanWorkingSec:   loss.PlanWorkingSec,
		ActualWorkingSec: loss.ActualWorkingSec,
		PDTSec:           loss.PDTSec,
		UPDTSec:          loss.UPDTSec,
		OverPDTSec:       loss.OverPDTSec,
		SmallStopFreq:    loss.SmallStopFreq,
		ComputedAt:       now,
	}); err != nil {
		return nil, fmt.Errorf("failed to store loss time for plan %d: %w", planID, err)
	}

	oee := analytics.ComputeOEE(plan.PlannedQty, plan.ActualQty, plan.NGQty, &loss)
	rec := database.OEERecord{
		PlanID:       planID,
		Availability: oee.Availability,
		Performance:  oee.Performance,
		Quality:      oee.Quality,
		OEE:          oee.Score,
		ComputedAt:   now,
	}
	if err := s.summaries.UpsertOEE(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store oee for plan %d: %w", planID, err)
	}
	return &rec, nil
}

// RecomputeClosedPlans queues a batch recomputation of every closed plan
// matching the filter and returns the job id to poll. The work itself
// runs on the worker pool with a fresh context: an HTTP request that
// triggered the batch does not get to cancel it halfway through.
func (s *RecomputeService) RecomputeClosedPlans(ctx context.Context, f database.Filter) (string, error) {
	plans, err := s.plans.ClosedPlans(ctx, f)
	if err != nil {
		return "", err
	}

	jobID := uuid.New().String()
	if err := s.summaries.CreateRecomputeJob(jobID, JobPending); err != nil {
		return "", fmt.Errorf("failed to create recompute job: %w", err)
	}

	total := len(plans)
	err = s.pool.Submit(jobs.Job{
		ID: jobID,
		Execute: func() error {
			bctx := context.Background()
			if err := s.summaries.UpdateRecomputeJob(jobID, JobRunning, "", 0, total); err != nil {
				return err
			}

			done := 0
			for _, plan := range plans {
				if _, err := s.RecomputePlan(bctx, plan.ID); err != nil {
					log.Printf("recompute job %s: plan %d failed: %v", jobID, plan.ID, err)
					_ = s.summaries.UpdateRecomputeJob(jobID, JobFailed, err.Error(), done, total)
					return err
				}
				done++
				if done%50 == 0 {
					_ = s.summaries.UpdateRecomputeJob(jobID, JobRunning, "", done, total)
				}
			}
			return s.summaries.UpdateRecomputeJob(jobID, JobCompleted, "", done, total)
		},
	})
	if err != nil {
		_ = s.summaries.UpdateRecomputeJob(jobID, JobFailed, err.Error(), 0, total)
		return "", err
	}
	return jobID, nil
}

// JobStatus looks up a batch job by id. Only a missing row is a
// not-found; storage failures pass through unchanged.
func (s *RecomputeService) JobStatus(jobID string) (*database.RecomputeJob, error) {
	job, err := s.summaries.RecomputeJobByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &NotFoundError{Entity: "job", Key: jobID}
	}
	return job, nil
}
