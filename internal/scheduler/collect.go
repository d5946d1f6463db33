// Package scheduler runs the periodic collection presets on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wnghdcjfe/card/internal/config"
	"github.com/wnghdcjfe/card/internal/tasks"
)

// Preset is one scheduled collection: a cron expression plus the ranking
// parameters the run uses.
type Preset struct {
	Name     string
	Schedule string
	Term     string
	Limit    int
	Enabled  bool
}

// presetsFromConfig builds the three standing presets. The daily run keeps
// the catalog fresh, the weekly and monthly runs go deeper into the ranking.
func presetsFromConfig(cfg *config.Config) []Preset {
	return []Preset{
		{
			Name:     "daily",
			Schedule: cfg.DailyCollect.Schedule,
			Term:     "daily",
			Limit:    cfg.DailyCollect.Limit,
			Enabled:  cfg.DailyCollect.Enabled,
		},
		{
			Name:     "weekly",
			Schedule: cfg.WeeklyCollect.Schedule,
			Term:     "weekly",
			Limit:    cfg.WeeklyCollect.Limit,
			Enabled:  cfg.WeeklyCollect.Enabled,
		},
		{
			Name:     "monthly",
			Schedule: cfg.MonthlyCollect.Schedule,
			Term:     "monthly",
			Limit:    cfg.MonthlyCollect.Limit,
			Enabled:  cfg.MonthlyCollect.Enabled,
		},
	}
}

// CollectScheduler manages the periodic collection jobs. Runs are enqueued
// on the task queue rather than executed inline, so a slow collection never
// blocks the cron loop and survives process restarts.
type CollectScheduler struct {
	queue   *tasks.Client
	presets []Preset

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCollectScheduler creates a scheduler for the configured presets.
func NewCollectScheduler(cfg *config.Config, queue *tasks.Client) *CollectScheduler {
	return &CollectScheduler{
		queue:   queue,
		presets: presetsFromConfig(cfg),
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the enabled presets and begins the cron loop.
func (s *CollectScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	registered := 0
	for _, preset := range s.presets {
		if !preset.Enabled {
			log.Printf("Collect scheduler: %s preset disabled", preset.Name)
			continue
		}
		p := preset
		if _, err := s.cron.AddFunc(p.Schedule, func() {
			s.enqueue(p)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s collection '%s': %w", p.Name, p.Schedule, err)
		}
		log.Printf("Collect scheduler: %s preset scheduled '%s' (limit=%d)", p.Name, p.Schedule, p.Limit)
		registered++
	}

	if registered == 0 {
		log.Printf("Collect scheduler: no presets enabled")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *CollectScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Collect scheduler: stopped")
}

// RunNow triggers a preset by name immediately, outside its schedule.
func (s *CollectScheduler) RunNow(name string) error {
	for _, preset := range s.presets {
		if preset.Name == name {
			s.enqueue(preset)
			return nil
		}
	}
	return fmt.Errorf("unknown collection preset %q", name)
}

// IsRunning returns whether the scheduler is active.
func (s *CollectScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns reports the upcoming fire time of each registered entry.
func (s *CollectScheduler) NextRuns() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Next)
	}
	return next
}

func (s *CollectScheduler) enqueue(p Preset) {
	_, err := s.queue.Add(tasks.CollectTask{
		Mode:  "ranking",
		Term:  p.Term,
		Limit: p.Limit,
	}).Save()
	if err != nil {
		log.Printf("Collect scheduler: failed to enqueue %s collection: %v", p.Name, err)
		return
	}
	log.Printf("Collect scheduler: %s collection enqueued (term=%s limit=%d)", p.Name, p.Term, p.Limit)
}
