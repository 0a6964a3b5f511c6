package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type prescriptionRepository struct {
	mu      sync.RWMutex
	records []*model.PrescriptionRecord // newest first
}

func NewPrescriptionRepository() repository.PrescriptionRepository {
	return &prescriptionRepository{}
}

func (r *prescriptionRepository) Create(ctx context.Context, rx *model.PrescriptionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *rx
	r.records = append([]*model.PrescriptionRecord{&c}, r.records...)
	return nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.PrescriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.PrescriptionRecord, 0)
	for _, rx := range r.records {
		if rx.PatientID == patientID {
			c := *rx
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *prescriptionRepository) List(ctx context.Context) ([]*model.PrescriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.PrescriptionRecord, 0, len(r.records))
	for _, rx := range r.records {
		c := *rx
		out = append(out, &c)
	}
	return out, nil
}
