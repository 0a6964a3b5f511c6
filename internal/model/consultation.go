package model

import (
	"strings"
	"time"
)

type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

type ActionCategory string

const (
	ActionSelfCare      ActionCategory = "SELF_CARE"
	ActionOTCMedication ActionCategory = "OTC_MEDICATION"
	ActionDoctorConsult ActionCategory = "DOCTOR_CONSULT"
	ActionEmergency     ActionCategory = "EMERGENCY"
)

// ConsultationInput is the patient's structured intake. Field order matters:
// validation reports the first failing field in declaration order.
type ConsultationInput struct {
	PatientID   string   `json:"patient_id"`
	PatientName string   `json:"patient_name,omitempty"`
	Age         *int     `json:"age" validate:"required,gte=0"`
	Gender      string   `json:"gender"`
	Symptoms    []string `json:"symptoms" validate:"has_nonblank"`
	Duration    string   `json:"duration" validate:"notblank"`
	PainLevel   int      `json:"pain_level" validate:"gte=1,lte=10"`
	History     []string `json:"history"`
	Notes       string   `json:"notes"`
	Weight      *float64 `json:"weight,omitempty"`
}

type PrimaryAction struct {
	Category ActionCategory `json:"category" validate:"oneof=SELF_CARE OTC_MEDICATION DOCTOR_CONSULT EMERGENCY"`
	Reason   string         `json:"reason"`
	NextStep string         `json:"next_step"`
}

// ConsultationOutput is the structured triage result.
type ConsultationOutput struct {
	Analysis              string        `json:"analysis" validate:"notblank"`
	PossibleConditions    []string      `json:"possible_conditions"`
	RecommendedActions    []string      `json:"recommended_actions"`
	DangerSigns           []string      `json:"danger_signs"`
	DoctorReferralNeeded  bool          `json:"doctor_referral_needed"`
	RecommendedSpecialist *string       `json:"recommended_specialist"`
	UrgencyLevel          UrgencyLevel  `json:"urgency_level" validate:"oneof=LOW MEDIUM HIGH CRITICAL"`
	PrimaryAction         PrimaryAction `json:"primary_action"`
}

// Specialist returns the recommended specialist, or "" when there is none.
// The literal string "null" counts as none.
func (o *ConsultationOutput) Specialist() string {
	if o.RecommendedSpecialist == nil {
		return ""
	}
	s := strings.TrimSpace(*o.RecommendedSpecialist)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// FirstCondition returns the leading possible condition or "".
func (o *ConsultationOutput) FirstCondition() string {
	for _, c := range o.PossibleConditions {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// Normalize replaces nil lists with empty ones.
func (o *ConsultationOutput) Normalize() {
	if o.PossibleConditions == nil {
		o.PossibleConditions = []string{}
	}
	if o.RecommendedActions == nil {
		o.RecommendedActions = []string{}
	}
	if o.DangerSigns == nil {
		o.DangerSigns = []string{}
	}
}

// ConsultationRecord is a persisted consultation. Appointment is joined on read.
type ConsultationRecord struct {
	ID               string               `json:"id"`
	PatientID        string               `json:"patient_id"`
	Input            ConsultationInput    `json:"input"`
	Result           ConsultationOutput   `json:"result"`
	SuggestedDoctors []DoctorSearchResult `json:"suggested_doctors"`
	CreatedAt        time.Time            `json:"created_at"`
	Appointment      *Appointment         `json:"appointment,omitempty"`
}

// ConsultationResult is what a pipeline run returns to the caller.
// DoctorRecommendations is nil, and omitted, when no specialist search ran.
type ConsultationResult struct {
	Consultation          ConsultationOutput  `json:"consultation"`
	DoctorRecommendations *DoctorSearchOutput `json:"doctor_recommendations,omitempty"`
	SessionID             string              `json:"session_id"`
}

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}
