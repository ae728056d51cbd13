package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Scheduler periodically runs ingestion cycles.
// Cycles never overlap; a trigger firing while a cycle is still running is skipped.
type Scheduler struct {
	service      *Service
	interval     time.Duration
	cycleTimeout time.Duration
	runOnStartup bool

	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc

	mtx        sync.Mutex
	lastReport *CycleReport
}

// NewScheduler creates a new ingestion scheduler.
// Every cycle is bounded by cycleTimeout; runOnStartup triggers the first cycle immediately on Start.
func NewScheduler(service *Service, interval, cycleTimeout time.Duration, runOnStartup bool) *Scheduler {
	return &Scheduler{
		service:      service,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		runOnStartup: runOnStartup,
		scheduler:    gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the ingestion job and starts the underlying scheduler
func (scheduler *Scheduler) Start() error {
	scheduler.ctx, scheduler.cancel = context.WithCancel(context.Background())

	job := scheduler.scheduler.Every(scheduler.interval).SingletonMode()
	if !scheduler.runOnStartup {
		job = job.WaitForSchedule()
	}
	if _, err := job.Do(scheduler.run); err != nil {
		scheduler.cancel()
		return err
	}

	scheduler.scheduler.StartAsync()
	return nil
}

// Stop cancels a currently running cycle and stops the underlying scheduler
func (scheduler *Scheduler) Stop() {
	if scheduler.cancel != nil {
		scheduler.cancel()
	}
	scheduler.scheduler.Stop()
}

// LastReport returns the report of the most recently finished cycle
func (scheduler *Scheduler) LastReport() *CycleReport {
	scheduler.mtx.Lock()
	defer scheduler.mtx.Unlock()
	return scheduler.lastReport
}

func (scheduler *Scheduler) run() {
	ctx, cancel := context.WithTimeout(scheduler.ctx, scheduler.cycleTimeout)
	defer cancel()

	report, err := scheduler.service.RunCycle(ctx)
	if err != nil {
		log.Error().Err(err).Msg("the ingestion cycle failed")
		return
	}

	scheduler.mtx.Lock()
	scheduler.lastReport = report
	scheduler.mtx.Unlock()
}
