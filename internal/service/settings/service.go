// Package settings holds the clinic-wide switches edited by administrators.
package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	apperrors "github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

type Service struct {
	repo   repository.SettingsRepository
	logger *logger.Logger
	mu     sync.Mutex
}

func NewService(repo repository.SettingsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

func (s *Service) GetSettings(ctx context.Context) (model.SystemSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return model.SystemSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings applies the non-nil fields of req and returns the result.
func (s *Service) UpdateSettings(ctx context.Context, req model.UpdateSettingsRequest) (model.SystemSettings, error) {
	if req.AIModel != nil && strings.TrimSpace(*req.AIModel) == "" {
		return model.SystemSettings{}, apperrors.NewValidation("ai_model", "ai_model is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.GetSettings(ctx)
	if err != nil {
		return model.SystemSettings{}, err
	}
	updated := req.Apply(current)
	if err := s.repo.Save(ctx, updated); err != nil {
		return model.SystemSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info("settings updated",
		"maintenance_mode", updated.MaintenanceMode,
		"enable_ai_consultation", updated.EnableAIConsultation,
		"ai_model", updated.AIModel,
	)
	return updated, nil
}

// ConsultationAvailable returns an unavailable error while maintenance mode
// is on or AI consultations are switched off.
func (s *Service) ConsultationAvailable(ctx context.Context) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.MaintenanceMode {
		return apperrors.NewUnavailable("the clinic portal is under maintenance")
	}
	if !settings.EnableAIConsultation {
		return apperrors.NewUnavailable("AI consultation is currently disabled")
	}
	return nil
}

func (s *Service) RegistrationsOpen(ctx context.Context) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.EnableNewRegistrations, nil
}

// AIModel returns the configured model name, or "" when it cannot be read.
func (s *Service) AIModel(ctx context.Context) string {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("failed to read AI model setting", "error", err.Error())
		return ""
	}
	return settings.AIModel
}
