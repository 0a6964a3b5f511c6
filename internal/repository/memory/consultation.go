package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type consultationRepository struct {
	mu      sync.RWMutex
	records []*model.ConsultationRecord // newest first
}

func NewConsultationRepository() repository.ConsultationRepository {
	return &consultationRepository{}
}

func (r *consultationRepository) Create(ctx context.Context, record *model.ConsultationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == record.ID {
			return repository.ErrDuplicate
		}
	}
	c := *record
	c.Appointment = nil
	r.records = append([]*model.ConsultationRecord{&c}, r.records...)
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id string) (*model.ConsultationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			c := *rec
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *consultationRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.ConsultationRecord, 0)
	for _, rec := range r.records {
		if rec.PatientID == patientID {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *consultationRepository) List(ctx context.Context) ([]*model.ConsultationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.ConsultationRecord, 0, len(r.records))
	for _, rec := range r.records {
		c := *rec
		out = append(out, &c)
	}
	return out, nil
}
