package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type appointmentRepository struct {
	mu             sync.RWMutex
	appointments   []*model.Appointment // newest first
	byConsultation map[string]*model.Appointment
}

func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{byConsultation: make(map[string]*model.Appointment)}
}

func (r *appointmentRepository) CreateIfAbsent(ctx context.Context, apt *model.Appointment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConsultation[apt.ConsultationID]; exists {
		return false, nil
	}
	c := *apt
	r.byConsultation[apt.ConsultationID] = &c
	r.appointments = append([]*model.Appointment{&c}, r.appointments...)
	return true, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *appointmentRepository) GetByConsultation(ctx context.Context, consultationID string) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byConsultation[consultationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, next model.AppointmentStatus) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.ID != id {
			continue
		}
		if !a.Status.CanTransitionTo(next) {
			return nil, repository.ErrInvalidTransition
		}
		a.Status = next
		a.UpdatedAt = time.Now().UTC()
		c := *a
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Appointment, 0)
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}
