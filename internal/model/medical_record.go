package model

import "time"

type RecordType string

const (
	RecordConsultation RecordType = "CONSULTATION"
	RecordPrescription RecordType = "PRESCRIPTION"
	RecordLabResult    RecordType = "LAB_RESULT"
	RecordVaccination  RecordType = "VACCINATION"
)

type RecordStatus string

const (
	RecordStatusCompleted           RecordStatus = "COMPLETED"
	RecordStatusPending             RecordStatus = "PENDING"
	RecordStatusCancelled           RecordStatus = "CANCELLED"
	RecordStatusActive              RecordStatus = "ACTIVE"
	RecordStatusSentToPharmacy      RecordStatus = "SENT_TO_PHARMACY"
	RecordStatusPendingVerification RecordStatus = "PENDING_VERIFICATION"
)

// MedicalTimelineItem is one entry of a patient's medical history view.
type MedicalTimelineItem struct {
	ID            string       `json:"id"`
	Date          time.Time    `json:"date"`
	Type          RecordType   `json:"type"`
	Title         string       `json:"title"`
	Provider      string       `json:"provider"`
	Summary       string       `json:"summary"`
	Tags          []string     `json:"tags"`
	Status        RecordStatus `json:"status,omitempty"`
	AttachmentURL string       `json:"attachment_url,omitempty"`
	Details       string       `json:"details,omitempty"`
}

// PrescriptionRecord is a doctor-written timeline item owned by a patient.
type PrescriptionRecord struct {
	MedicalTimelineItem
	PatientID string `json:"patient_id"`
}

type CreatePrescriptionRequest struct {
	DoctorName string `json:"doctor_name" binding:"required"`
	Summary    string `json:"summary" binding:"required"`
	Details    string `json:"details"`
}

// DoctorPatient is a unique patient seen in a doctor's appointments.
type DoctorPatient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	LastVisit time.Time `json:"last_visit"`
	Condition string    `json:"condition"`
	Status    string    `json:"status"`
}

type GlobalStats struct {
	Prescriptions []MedicalTimelineItem `json:"prescriptions"`
	Consultations []MedicalTimelineItem `json:"consultations"`
}
