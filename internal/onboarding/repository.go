package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("onboarding state not found")

type Repository interface {
	Get(ctx context.Context, visitorID string) (*State, error)
	Save(ctx context.Context, state *State) error
}

// GormRepository stores onboarding state in PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates the repository and migrates its table
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&State{}); err != nil {
		return nil, fmt.Errorf("failed to migrate onboarding states: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Get(ctx context.Context, visitorID string) (*State, error) {
	var st State
	err := r.db.WithContext(ctx).First(&st, "visitor_id = ?", visitorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding state: %w", err)
	}
	return &st, nil
}

func (r *GormRepository) Save(ctx context.Context, state *State) error {
	if err := r.db.WithContext(ctx).Save(state).Error; err != nil {
		return fmt.Errorf("failed to save onboarding state: %w", err)
	}
	return nil
}

// MemoryRepository keeps onboarding state in process
type MemoryRepository struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[string]State)}
}

func (r *MemoryRepository) Get(_ context.Context, visitorID string) (*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.states[visitorID]
	if !ok {
		return nil, ErrNotFound
	}
	st.Extra = cloneExtra(st.Extra)
	return &st, nil
}

func (r *MemoryRepository) Save(_ context.Context, state *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := *state
	st.Extra = cloneExtra(state.Extra)
	r.states[state.VisitorID] = st
	return nil
}

func cloneExtra(m datatypes.JSONMap) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
