package etl

import (
	"context"
	"log"
	"time"

	"prodstat/config"
	"prodstat/database"
)

// The scheduler's collaborators, narrowed so the cycle logic can be
// tested without a source database. *Ingestor, *reports.RecomputeService,
// *mart.Builder and *database.Repository satisfy them.

type planSource interface {
	Ingest(ctx context.Context, start, end time.Time) (map[string]int, error)
}

type recomputeQueuer interface {
	RecomputeClosedPlans(ctx context.Context, f database.Filter) (string, error)
}

type martRefresher interface {
	Refresh(ctx context.Context) error
}

type retentionStore interface {
	CleanupOldData(retentionDays int) error
}

// Scheduler drives the periodic pipeline: pull new history from the MES
// source, recompute derived rows for it, rebuild the mart and run the
// daily cleanup at the configured wall-clock time.
type Scheduler struct {
	cfg         *config.Config
	ingestor    planSource
	recompute   recomputeQueuer
	martBuilder martRefresher
	repo        retentionStore

	ticker      *time.Ticker
	quit        chan struct{}
	lastIngest  time.Time
	lastCleanup time.Time
}

func NewScheduler(cfg *config.Config, ingestor planSource, recompute recomputeQueuer, martBuilder martRefresher, repo retentionStore) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		ingestor:    ingestor,
		recompute:   recompute,
		martBuilder: martBuilder,
		repo:        repo,
		quit:        make(chan struct{}),
		lastIngest:  time.Now().AddDate(0, 0, -1),
	}
}

// Start begins the scheduling loop.
func (s *Scheduler) Start() {
	if !s.cfg.Scheduler.Enabled {
		log.Println("scheduler disabled by config")
		return
	}

	interval := time.Duration(s.cfg.Scheduler.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 60 * time.Minute
	}

	log.Printf("scheduler started, interval %v, cleanup at %s", interval, s.cfg.Retention.CleanupTime)
	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runCycle()
			case <-s.quit:
				s.ticker.Stop()
				return
			}
		}
	}()
}

// Stop terminates the scheduling loop.
func (s *Scheduler) Stop() {
	close(s.quit)
}

func (s *Scheduler) runCycle() {
	ctx := context.Background()
	now := time.Now()

	counts, err := s.ingestor.Ingest(ctx, s.lastIngest, now)
	if err != nil {
		log.Printf("scheduler: ingest failed: %v", err)
	} else {
		// Recompute from the start of the ingested window, not from
		// now: after a gap the window spans several days of plans.
		since := s.lastIngest
		s.lastIngest = now

		if counts["production_plans"] > 0 {
			log.Printf("scheduler: ingested %v", counts)

			jobID, err := s.recompute.RecomputeClosedPlans(ctx, database.Filter{
				StartDate: since.Format("2006-01-02"),
			})
			if err != nil {
				log.Printf("scheduler: recompute enqueue failed: %v", err)
			} else {
				log.Printf("scheduler: recompute job %s queued", jobID)
			}

			if err := s.martBuilder.Refresh(ctx); err != nil {
				log.Printf("scheduler: mart refresh failed: %v", err)
			}
		}
	}

	s.maybeCleanup(now)
}

// maybeCleanup runs at most once per day, at or after the configured
// cleanup time.
func (s *Scheduler) maybeCleanup(now time.Time) {
	at, err := time.Parse("15:04", s.cfg.Retention.CleanupTime)
	if err != nil {
		return
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if now.Before(due) || s.lastCleanup.After(due) {
		return
	}

	log.Printf("scheduler: running cleanup, retention %d days", s.cfg.Retention.DataDays)
	if err := s.repo.CleanupOldData(s.cfg.Retention.DataDays); err != nil {
		log.Printf("scheduler: cleanup failed: %v", err)
		return
	}
	s.lastCleanup = now
}
