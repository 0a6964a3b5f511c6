package model

type DoctorSearchResult struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Specialist      string `json:"specialist"`
	ExperienceYears int    `json:"experience_years"`
	IsVerified      bool   `json:"is_verified"`
	IsActive        bool   `json:"is_active"`
	Clinic          string `json:"clinic,omitempty"`
}

type DoctorSearchOutput struct {
	Doctors []DoctorSearchResult `json:"doctors"`
}
