// Package rbac decides what each portal role may do.
package rbac

import (
	"strings"

	"github.com/jwalitptl/healthtown-api/internal/model"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// DetermineAccess returns the fixed profile for role. Unknown or empty
// roles get the patient profile.
func (s *Service) DetermineAccess(role string) model.AccessProfile {
	switch model.UserRole(strings.ToUpper(strings.TrimSpace(role))) {
	case model.RoleAdmin:
		return model.AccessProfile{
			Role: model.RoleAdmin,
			Permissions: []model.Permission{
				model.PermManageUsers,
				model.PermVerifyDoctors,
				model.PermViewSystemStats,
				model.PermEditSettings,
				model.PermViewAuditLogs,
			},
			UIConfig: model.UIConfig{ShowDashboard: true, ShowRecords: true, ShowAdminPanel: true},
		}

	case model.RoleDoctor:
		return model.AccessProfile{
			Role: model.RoleDoctor,
			Permissions: []model.Permission{
				model.PermViewPatients,
				model.PermWritePrescription,
				model.PermCreateRecord,
				model.PermViewQueue,
			},
			UIConfig: model.UIConfig{ShowDashboard: true, ShowRecords: true, CanPrescribe: true},
		}

	default:
		return model.AccessProfile{
			Role: model.RolePatient,
			Permissions: []model.Permission{
				model.PermRunConsultation,
				model.PermViewOwnHistory,
				model.PermViewOwnRx,
				model.PermTriggerEmergency,
			},
			UIConfig: model.UIConfig{ShowDashboard: true, ShowRecords: true},
		}
	}
}

// Allowed reports whether role holds any of perms.
func (s *Service) Allowed(role string, perms ...model.Permission) bool {
	profile := s.DetermineAccess(role)
	for _, p := range perms {
		if profile.Has(p) {
			return true
		}
	}
	return false
}
