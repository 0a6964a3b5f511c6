package model

import (
	"encoding/json"
	"time"
)

type InteractionStatus string

const (
	InteractionSuccess InteractionStatus = "SUCCESS"
	InteractionFailure InteractionStatus = "FAILURE"
)

// Agent names recorded in the audit trail.
const (
	AgentConsultation = "ConsultationAgent"
	AgentDoctorSearch = "DoctorSearchAgent"
)

// LogEntry is an append-only record of one agent interaction.
// Payload and Response are JSON snapshots taken at logging time.
type LogEntry struct {
	ID        string            `json:"id" db:"id"`
	Timestamp time.Time         `json:"timestamp" db:"created_at"`
	AgentName string            `json:"agent_name" db:"agent_name"`
	UserID    string            `json:"user_id" db:"user_id"`
	Payload   json.RawMessage   `json:"payload" db:"payload"`
	Response  json.RawMessage   `json:"response" db:"response"`
	Status    InteractionStatus `json:"status" db:"status"`
}

// Clone returns a copy that shares no memory with e.
func (e LogEntry) Clone() LogEntry {
	out := e
	out.Payload = append(json.RawMessage(nil), e.Payload...)
	out.Response = append(json.RawMessage(nil), e.Response...)
	return out
}

type LogResult struct {
	Logged bool   `json:"logged"`
	LogID  string `json:"log_id"`
}

// LogFailedID is the LogID reported when an entry could not be recorded.
const LogFailedID = "failed"
