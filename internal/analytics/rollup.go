package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/tutorial"
)

// RollupConfig configures the periodic summary job
type RollupConfig struct {
	Schedule string        `json:"schedule"`
	Window   time.Duration `json:"window"`
}

func DefaultRollupConfig() RollupConfig {
	return RollupConfig{
		Schedule: "@every 5m",
		Window:   30 * 24 * time.Hour,
	}
}

// Rollup periodically aggregates step records into a cached Summary
type Rollup struct {
	cron    *cron.Cron
	repo    Repository
	config  RollupConfig
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.RWMutex
	latest  *Summary
	running bool
	jobs    []scheduledJob
}

type scheduledJob struct {
	name     string
	schedule string
	run      func(context.Context) error
}

func NewRollup(repo Repository, config RollupConfig, logger *zap.Logger) *Rollup {
	if config.Schedule == "" {
		config.Schedule = DefaultRollupConfig().Schedule
	}
	if config.Window <= 0 {
		config.Window = DefaultRollupConfig().Window
	}
	return &Rollup{
		cron:   cron.New(),
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Start schedules the rollup job and runs it once immediately
func (r *Rollup) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("analytics rollup already running")
	}
	r.running = true
	r.mu.Unlock()

	if _, err := r.cron.AddFunc(r.config.Schedule, func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error("Analytics rollup failed", zap.Error(err))
		}
	}); err != nil {
		r.setRunning(false)
		return fmt.Errorf("invalid rollup schedule %q: %w", r.config.Schedule, err)
	}

	for _, job := range r.jobs {
		if _, err := r.cron.AddFunc(job.schedule, func() {
			if err := job.run(ctx); err != nil {
				r.logger.Error("Scheduled analytics job failed", zap.String("job", job.name), zap.Error(err))
			}
		}); err != nil {
			r.setRunning(false)
			return fmt.Errorf("invalid schedule %q for %s: %w", job.schedule, job.name, err)
		}
	}

	r.logger.Info("Starting analytics rollup", zap.String("schedule", r.config.Schedule), zap.Int("extra_jobs", len(r.jobs)))
	r.cron.Start()

	go func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error("Initial analytics rollup failed", zap.Error(err))
		}
	}()
	return nil
}

func (r *Rollup) setRunning(running bool) {
	r.mu.Lock()
	r.running = running
	r.mu.Unlock()
}

// Schedule adds a job to the rollup's cron. Jobs must be added before Start.
func (r *Rollup) Schedule(name, schedule string, run func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, scheduledJob{name: name, schedule: schedule, run: run})
}

// Stop stops the cron scheduler and waits for a running job
func (r *Rollup) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.logger.Info("Stopping analytics rollup")
	<-r.cron.Stop().Done()
	r.running = false
}

// Run computes a fresh summary and caches it
func (r *Rollup) Run(ctx context.Context) (*Summary, error) {
	now := r.now()
	since := now.Add(-r.config.Window)

	records, err := r.repo.ListSteps(ctx, since)
	if err != nil {
		return nil, err
	}

	summary := Summarize(records, since, now)

	r.mu.Lock()
	r.latest = summary
	r.mu.Unlock()

	r.logger.Debug("Analytics rollup complete", zap.Int("records", summary.Records))
	return summary, nil
}

// Latest returns the most recent summary, nil before the first run
func (r *Rollup) Latest() *Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Summarize aggregates records per variant and phase. Phases are ordered by
// the tutorial order, unknown (walkthrough) phases after them by name.
func Summarize(records []StepRecord, since, now time.Time) *Summary {
	type key struct{ variant, phase string }
	durations := make(map[key][]int64)
	skipped := make(map[key]int)
	sessions := make(map[string]map[string]struct{})

	for _, rec := range records {
		k := key{rec.Variant, rec.Phase}
		durations[k] = append(durations[k], rec.DurationMs)
		if rec.Skipped {
			skipped[k]++
		}
		if sessions[rec.Variant] == nil {
			sessions[rec.Variant] = make(map[string]struct{})
		}
		sessions[rec.Variant][rec.SessionID] = struct{}{}
	}

	variants := make([]string, 0, len(sessions))
	for v := range sessions {
		variants = append(variants, v)
	}
	sort.Strings(variants)

	summary := &Summary{GeneratedAt: now, Since: since, Records: len(records)}
	for _, v := range variants {
		vs := VariantSummary{Variant: v, Sessions: len(sessions[v])}
		for k, ds := range durations {
			if k.variant != v {
				continue
			}
			vs.Phases = append(vs.Phases, phaseStats(k.phase, ds, skipped[k]))
		}
		sort.Slice(vs.Phases, func(i, j int) bool {
			return phaseLess(vs.Phases[i].Phase, vs.Phases[j].Phase)
		})
		summary.Variants = append(summary.Variants, vs)
	}
	return summary
}

func phaseStats(phase string, ds []int64, skipped int) PhaseStats {
	sorted := append([]int64(nil), ds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	for _, d := range sorted {
		total += d
	}
	return PhaseStats{
		Phase:   phase,
		Count:   len(sorted),
		Skipped: skipped,
		AvgMs:   float64(total) / float64(len(sorted)),
		P50Ms:   sorted[(len(sorted)-1)/2],
		MaxMs:   sorted[len(sorted)-1],
	}
}

func phaseLess(a, b string) bool {
	ia, ib := tutorial.Phase(a).Index(), tutorial.Phase(b).Index()
	switch {
	case ia >= 0 && ib >= 0:
		return ia < ib
	case ia >= 0:
		return true
	case ib >= 0:
		return false
	default:
		return a < b
	}
}
