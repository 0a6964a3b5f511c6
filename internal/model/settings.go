package model

type SystemSettings struct {
	ClinicName             string `json:"clinic_name"`
	SupportEmail           string `json:"support_email"`
	MaintenanceMode        bool   `json:"maintenance_mode"`
	EnableAIConsultation   bool   `json:"enable_ai_consultation"`
	EnableNewRegistrations bool   `json:"enable_new_registrations"`
	GlobalAnnouncement     string `json:"global_announcement"`
	AIModel                string `json:"ai_model"`
}

func DefaultSettings() SystemSettings {
	return SystemSettings{
		ClinicName:             "HealthTown Clinic",
		SupportEmail:           "support@healthtown.com",
		MaintenanceMode:        false,
		EnableAIConsultation:   true,
		EnableNewRegistrations: true,
		GlobalAnnouncement:     "",
		AIModel:                "gemini-1.5-flash",
	}
}

// UpdateSettingsRequest is a partial update; nil fields are left untouched.
type UpdateSettingsRequest struct {
	ClinicName             *string `json:"clinic_name"`
	SupportEmail           *string `json:"support_email" binding:"omitempty,email"`
	MaintenanceMode        *bool   `json:"maintenance_mode"`
	EnableAIConsultation   *bool   `json:"enable_ai_consultation"`
	EnableNewRegistrations *bool   `json:"enable_new_registrations"`
	GlobalAnnouncement     *string `json:"global_announcement"`
	AIModel                *string `json:"ai_model"`
}

// Apply returns s with the non-nil fields of req applied.
func (req UpdateSettingsRequest) Apply(s SystemSettings) SystemSettings {
	if req.ClinicName != nil {
		s.ClinicName = *req.ClinicName
	}
	if req.SupportEmail != nil {
		s.SupportEmail = *req.SupportEmail
	}
	if req.MaintenanceMode != nil {
		s.MaintenanceMode = *req.MaintenanceMode
	}
	if req.EnableAIConsultation != nil {
		s.EnableAIConsultation = *req.EnableAIConsultation
	}
	if req.EnableNewRegistrations != nil {
		s.EnableNewRegistrations = *req.EnableNewRegistrations
	}
	if req.GlobalAnnouncement != nil {
		s.GlobalAnnouncement = *req.GlobalAnnouncement
	}
	if req.AIModel != nil {
		s.AIModel = *req.AIModel
	}
	return s
}
