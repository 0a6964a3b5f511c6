// Package orchestrator runs one patient consultation end to end: triage,
// optional specialist search, audit trail and persistence.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
	"github.com/jwalitptl/healthtown-api/pkg/validator"
)

type (
	Assessor interface {
		Assess(ctx context.Context, input model.ConsultationInput) (*model.ConsultationOutput, error)
	}

	DoctorFinder interface {
		FindMatchingDoctors(ctx context.Context, specialist string) (*model.DoctorSearchOutput, error)
	}

	InteractionLogger interface {
		LogInteraction(ctx context.Context, agentName, userID string, payload, response interface{}, success bool) model.LogResult
	}

	ConsultationSaver interface {
		SaveConsultation(ctx context.Context, patientID string, input model.ConsultationInput, output model.ConsultationOutput, doctors []model.DoctorSearchResult) (*model.ConsultationRecord, error)
	}
)

type Service struct {
	assessor  Assessor
	doctors   DoctorFinder
	audit     InteractionLogger
	store     ConsultationSaver
	validator *validator.Validator
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(assessor Assessor, doctors DoctorFinder, audit InteractionLogger, store ConsultationSaver, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		assessor:  assessor,
		doctors:   doctors,
		audit:     audit,
		store:     store,
		validator: validator.New(),
		logger:    log,
		metrics:   m,
	}
}

// Run validates input and executes the pipeline. Steps run strictly in
// order and the audit entries of completed steps remain when a later step
// fails. Invalid input is rejected before anything is recorded.
func (s *Service) Run(ctx context.Context, userID string, input model.ConsultationInput) (*model.ConsultationResult, error) {
	if err := s.validator.Struct(input); err != nil {
		s.metrics.ObserveRun("invalid")
		return nil, err
	}
	input.Notes = strings.TrimSpace(input.Notes)
	if input.PatientID == "" {
		input.PatientID = userID
	}

	log := s.logger.WithFields(map[string]interface{}{"user_id": userID})

	s.audit.LogInteraction(ctx, model.AgentConsultation, userID, input, nil, true)

	output, err := s.assessor.Assess(ctx, input)
	if err != nil {
		s.audit.LogInteraction(ctx, model.AgentConsultation, userID, map[string]string{"error": err.Error()}, nil, false)
		s.metrics.ObserveRun("ai_error")
		return nil, fmt.Errorf("failed to run consultation agent: %w", err)
	}

	s.audit.LogInteraction(ctx, model.AgentConsultation, userID, nil, output, true)

	var recommendations *model.DoctorSearchOutput
	suggested := []model.DoctorSearchResult{}

	if specialist := output.Specialist(); output.DoctorReferralNeeded && specialist != "" {
		log.Debug("referral needed, searching doctors", "specialist", specialist)

		recommendations, err = s.doctors.FindMatchingDoctors(ctx, specialist)
		if err != nil {
			s.metrics.ObserveRun("search_error")
			return nil, fmt.Errorf("failed to search doctors: %w", err)
		}
		s.audit.LogInteraction(ctx, model.AgentDoctorSearch, userID, map[string]string{"specialist": specialist}, recommendations, true)
		suggested = recommendations.Doctors
	}

	record, err := s.store.SaveConsultation(ctx, userID, input, *output, suggested)
	if err != nil {
		s.metrics.ObserveRun("store_error")
		return nil, fmt.Errorf("failed to save consultation: %w", err)
	}

	s.metrics.ObserveRun("success")
	log.Info("consultation completed", "session_id", record.ID, "urgency", string(output.UrgencyLevel))

	return &model.ConsultationResult{
		Consultation:          *output,
		DoctorRecommendations: recommendations,
		SessionID:             record.ID,
	}, nil
}
