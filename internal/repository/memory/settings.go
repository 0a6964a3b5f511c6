package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type settingsRepository struct {
	mu       sync.RWMutex
	settings model.SystemSettings
}

func NewSettingsRepository(initial model.SystemSettings) repository.SettingsRepository {
	return &settingsRepository{settings: initial}
}

func (r *settingsRepository) Get(ctx context.Context) (model.SystemSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings model.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}
