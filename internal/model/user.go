package model

import (
	"strings"
	"time"
)

type UserRole string

const (
	RolePatient UserRole = "PATIENT"
	RoleDoctor  UserRole = "DOCTOR"
	RoleAdmin   UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusPending  UserStatus = "PENDING"
)

// User is a directory entry. Doctor-only fields are empty for other roles.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	Avatar       string     `json:"avatar,omitempty"`
	PasswordHash string     `json:"-"`

	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
	Phone  string `json:"phone,omitempty"`

	Clinic          string `json:"clinic,omitempty"`
	STRNumber       string `json:"str_number,omitempty"`
	Specialization  string `json:"specialization,omitempty"`
	ExperienceYears *int   `json:"experience_years,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActiveDoctor reports whether the user may receive referrals.
func (u *User) IsActiveDoctor() bool {
	return u.Role == RoleDoctor && u.Status == UserStatusActive
}

// EmailMatches compares e-mail addresses case-insensitively.
func (u *User) EmailMatches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}

type CreateUserRequest struct {
	Name            string     `json:"name" binding:"required"`
	Email           string     `json:"email" binding:"required,email"`
	Password        string     `json:"password" binding:"required"`
	Role            UserRole   `json:"role" binding:"required,oneof=PATIENT DOCTOR ADMIN"`
	Status          UserStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE PENDING"`
	Age             *int       `json:"age" binding:"omitempty,gte=0"`
	Gender          string     `json:"gender"`
	Phone           string     `json:"phone"`
	Clinic          string     `json:"clinic"`
	STRNumber       string     `json:"str_number"`
	Specialization  string     `json:"specialization"`
	ExperienceYears *int       `json:"experience_years" binding:"omitempty,gte=0"`
}

type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Name            *string     `json:"name"`
	Email           *string     `json:"email" binding:"omitempty,email"`
	Password        *string     `json:"password"`
	Status          *UserStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE PENDING"`
	Age             *int        `json:"age" binding:"omitempty,gte=0"`
	Gender          *string     `json:"gender"`
	Phone           *string     `json:"phone"`
	Clinic          *string     `json:"clinic"`
	STRNumber       *string     `json:"str_number"`
	Specialization  *string     `json:"specialization"`
	ExperienceYears *int        `json:"experience_years" binding:"omitempty,gte=0"`
}

type LoginRequest struct {
	Email    string   `json:"email" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role" binding:"required,oneof=PATIENT DOCTOR ADMIN"`
}
