package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ops-web/ops-web-backend/internal/tutorial"
)

// Recorder is the fire-and-forget analytics sink. Record never blocks; when
// the queue is full the record is dropped.
type Recorder struct {
	repo    Repository
	queue   chan *StepRecord
	timeout time.Duration
	logger  *zap.Logger

	wg       sync.WaitGroup
	mu       sync.RWMutex
	started  bool
	stopped  bool
	dropped  atomic.Int64
	recorded atomic.Int64
}

// RecorderConfig configures the recorder queue
type RecorderConfig struct {
	QueueSize    int
	WriteTimeout time.Duration
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{QueueSize: 1024, WriteTimeout: 5 * time.Second}
}

func NewRecorder(repo Repository, cfg RecorderConfig, logger *zap.Logger) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultRecorderConfig().QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultRecorderConfig().WriteTimeout
	}
	return &Recorder{
		repo:    repo,
		queue:   make(chan *StepRecord, cfg.QueueSize),
		timeout: cfg.WriteTimeout,
		logger:  logger,
	}
}

// Start launches the writer goroutine
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.wg.Add(1)
	go r.run()
}

// Stop drains the queue and waits for the writer
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if started {
		r.wg.Wait()
	}
}

// Record enqueues a step record
func (r *Recorder) Record(rec StepRecord) bool {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return false
	}

	select {
	case r.queue <- &rec:
		return true
	default:
		r.dropped.Add(1)
		r.logger.Warn("Analytics queue full, dropping step record",
			zap.String("session_id", rec.SessionID),
			zap.String("phase", rec.Phase))
		return false
	}
}

// Stats returns how many records were written and dropped
func (r *Recorder) Stats() (recorded, dropped int64) {
	return r.recorded.Load(), r.dropped.Load()
}

// TutorialObserver converts session transitions into step records
func (r *Recorder) TutorialObserver() tutorial.Observer {
	return func(_ *tutorial.Session, t tutorial.Transition) {
		if !t.Recorded() {
			return
		}
		r.Record(StepRecord{
			SessionID:  t.SessionID.String(),
			VisitorID:  t.VisitorID,
			Variant:    t.Variant,
			Phase:      string(t.From),
			DurationMs: t.Duration.Milliseconds(),
			Skipped:    t.Kind == tutorial.TransitionSkip,
			Auto:       t.Kind == tutorial.TransitionAuto,
			Source:     SourceInteractive,
			RecordedAt: t.At,
		})
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()

	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.repo.SaveStep(ctx, rec)
		cancel()

		if err != nil {
			r.logger.Error("Failed to persist step record",
				zap.Error(err),
				zap.String("session_id", rec.SessionID),
				zap.String("phase", rec.Phase))
			continue
		}

		r.recorded.Add(1)
	}
}
