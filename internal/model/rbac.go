package model

type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermVerifyDoctors     Permission = "verify_doctors"
	PermViewSystemStats   Permission = "view_system_stats"
	PermEditSettings      Permission = "edit_settings"
	PermViewAuditLogs     Permission = "view_audit_logs"
	PermViewPatients      Permission = "view_assigned_patients"
	PermWritePrescription Permission = "write_prescription"
	PermCreateRecord      Permission = "create_medical_record"
	PermViewQueue         Permission = "view_consultation_queue"
	PermRunConsultation   Permission = "run_ai_consultation"
	PermViewOwnHistory    Permission = "view_own_history"
	PermViewOwnRx         Permission = "view_own_prescriptions"
	PermTriggerEmergency  Permission = "trigger_emergency"
)

type UIConfig struct {
	ShowDashboard  bool `json:"show_dashboard"`
	ShowRecords    bool `json:"show_records"`
	ShowAdminPanel bool `json:"show_admin_panel"`
	CanPrescribe   bool `json:"can_prescribe"`
}

// AccessProfile is the permission set granted to a role.
type AccessProfile struct {
	Role        UserRole     `json:"role"`
	Permissions []Permission `json:"permissions"`
	UIConfig    UIConfig     `json:"ui_config"`
}

func (p AccessProfile) Has(perm Permission) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}
