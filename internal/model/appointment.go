package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
// Re-applying the current status is allowed and is a no-op.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment links one consultation to one doctor.
type Appointment struct {
	ID             string            `json:"id" db:"id"`
	ConsultationID string            `json:"consultation_id" db:"consultation_id"`
	DoctorID       string            `json:"doctor_id" db:"doctor_id"`
	PatientID      string            `json:"patient_id" db:"patient_id"`
	Status         AppointmentStatus `json:"status" db:"status"`
	Timestamp      time.Time         `json:"timestamp" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

type PatientSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role,omitempty"`
}

// UnknownPatient stands in for a patient missing from the directory.
var UnknownPatient = PatientSummary{ID: "UNKNOWN", Name: "Unknown Patient"}

type ConsultationSummary struct {
	ID                 string       `json:"id"`
	Summary            string       `json:"summary"`
	Urgency            UrgencyLevel `json:"urgency"`
	Symptoms           []string     `json:"symptoms"`
	PrimaryCondition   string       `json:"primary_condition"`
	Age                int          `json:"age"`
	Gender             string       `json:"gender"`
	Duration           string       `json:"duration"`
	Notes              string       `json:"notes"`
	PossibleConditions []string     `json:"possible_conditions"`
	RecommendedActions []string     `json:"recommended_actions"`
}

// DoctorAppointment is an appointment joined with its patient and consultation.
type DoctorAppointment struct {
	AppointmentID string               `json:"appointment_id"`
	Status        AppointmentStatus    `json:"status"`
	Timestamp     time.Time            `json:"timestamp"`
	Patient       PatientSummary       `json:"patient"`
	Consultation  *ConsultationSummary `json:"consultation"`
}

// AllowedPredecessors lists the statuses from which next may be reached.
func AllowedPredecessors(next AppointmentStatus) []AppointmentStatus {
	var out []AppointmentStatus
	for _, s := range []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
	} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}
