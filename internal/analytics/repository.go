package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Repository stores tutorial step records
type Repository interface {
	SaveStep(ctx context.Context, rec *StepRecord) error
	ListSteps(ctx context.Context, since time.Time) ([]StepRecord, error)
}

// GormRepository is the PostgreSQL-backed repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates the repository and migrates its table
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&StepRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate step records: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) SaveStep(ctx context.Context, rec *StepRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save step record: %w", err)
	}
	return nil
}

func (r *GormRepository) ListSteps(ctx context.Context, since time.Time) ([]StepRecord, error) {
	var records []StepRecord
	err := r.db.WithContext(ctx).
		Where("recorded_at >= ?", since).
		Order("recorded_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list step records: %w", err)
	}
	return records, nil
}

// MemoryRepository keeps records in process. Used when no database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []StepRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) SaveStep(_ context.Context, rec *StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *MemoryRepository) ListSteps(_ context.Context, since time.Time) ([]StepRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StepRecord, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.RecordedAt.Before(since) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}
