package user

import (
	"fmt"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/security"
)

type seedUser struct {
	user     model.User
	password string
}

func years(n int) *int { return &n }

var demoDirectory = []seedUser{
	{model.User{ID: "D001", Name: "Dr. Sarah Wijaya", Email: "sarah@healthtown.com", Role: model.RoleDoctor, Status: model.UserStatusActive,
		Clinic: "Klinik Sehat HealthTown", Specialization: "Dokter Umum", STRNumber: "STR-1234567890", ExperienceYears: years(8)}, "password123"},
	{model.User{ID: "D002", Name: "Dr. Andi Pratama", Email: "andi@healthtown.com", Role: model.RoleDoctor, Status: model.UserStatusPending,
		Clinic: "Puskesmas Kota", Specialization: "Dokter Anak", STRNumber: "STR-0987654321", ExperienceYears: years(5)}, "password123"},
	{model.User{ID: "D003", Name: "Dr. Bambang Hartono", Email: "bambang@healthtown.com", Role: model.RoleDoctor, Status: model.UserStatusActive,
		Clinic: "RS Jantung Jakarta", Specialization: "Spesialis Jantung", STRNumber: "STR-1122334455", ExperienceYears: years(15)}, "password123"},
	{model.User{ID: "D004", Name: "Dr. Lina Sucipto", Email: "lina@healthtown.com", Role: model.RoleDoctor, Status: model.UserStatusActive,
		Clinic: "Klinik Kulit Indah", Specialization: "Spesialis Kulit", STRNumber: "STR-5566778899", ExperienceYears: years(12)}, "password123"},
	{model.User{ID: "D005", Name: "Dr. Eka Putri", Email: "eka@healthtown.com", Role: model.RoleDoctor, Status: model.UserStatusActive,
		Clinic: "Klinik Mata Sejahtera", Specialization: "Spesialis Mata", STRNumber: "STR-3344556677", ExperienceYears: years(7)}, "password123"},
	{model.User{ID: "D006", Name: "Dr. Fajar Nugraha", Email: "fajar@healthtown.com", Role: model.RoleDoctor, Status: model.UserStatusActive,
		Clinic: "RS Bedah Sentosa", Specialization: "Bedah Umum", STRNumber: "STR-9988776655", ExperienceYears: years(10)}, "password123"},
	{model.User{ID: "A001", Name: "Admin Sistem", Email: "admin@healthtown.com", Role: model.RoleAdmin, Status: model.UserStatusActive}, "admin"},
	{model.User{ID: "U001", Name: "Budi Santoso", Email: "budi@email.com", Role: model.RolePatient, Status: model.UserStatusActive}, "password"},
	{model.User{ID: "U002", Name: "Siti Aminah", Email: "siti@email.com", Role: model.RolePatient, Status: model.UserStatusActive}, "password"},
	{model.User{ID: "U003", Name: "Rudi Hermawan", Email: "rudi@email.com", Role: model.RolePatient, Status: model.UserStatusActive}, "password"},
}

// DemoDirectory returns the demo users with hashed passwords.
func DemoDirectory(hasher security.PasswordHasher) ([]*model.User, error) {
	out := make([]*model.User, 0, len(demoDirectory))
	for _, s := range demoDirectory {
		u := s.user
		hash, err := hasher.Hash(s.password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash seed password for %s: %w", u.ID, err)
		}
		u.PasswordHash = hash
		u.Avatar = avatarURL(u.Name)
		out = append(out, &u)
	}
	return out, nil
}
