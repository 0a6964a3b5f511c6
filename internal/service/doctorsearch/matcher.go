package doctorsearch

import (
	"regexp"
	"strings"

	"github.com/jwalitptl/healthtown-api/internal/model"
)

// DefaultSpecialistLabel labels doctors with no recorded specialization.
const DefaultSpecialistLabel = "General Practitioner"

// Canonical specialty keys.
const (
	KeyCardiology    = "jantung"
	KeyPediatrics    = "anak"
	KeyDermatology   = "kulit"
	KeyNeurology     = "syaraf"
	KeyOphthalmology = "mata"
	KeyGeneral       = "umum"
)

// rawKeywordMinLen: tokens longer than this are kept verbatim as keywords.
const rawKeywordMinLen = 3

type synonym struct {
	surface   string
	canonical string
}

// synonyms maps surface forms (Indonesian and English loanwords) onto
// canonical keys. A token emits the key of every surface form it contains.
var synonyms = []synonym{
	{"jantung", KeyCardiology},
	{"kardiolog", KeyCardiology},
	{"cardiologist", KeyCardiology},
	{"cardio", KeyCardiology},
	{"heart", KeyCardiology},

	{"anak", KeyPediatrics},
	{"pediatrician", KeyPediatrics},
	{"pediatri", KeyPediatrics},
	{"paediatri", KeyPediatrics},

	{"kulit", KeyDermatology},
	{"kelamin", KeyDermatology},
	{"dermatologist", KeyDermatology},
	{"dermatolog", KeyDermatology},

	{"syaraf", KeyNeurology},
	{"saraf", KeyNeurology},
	{"neurolog", KeyNeurology},

	{"mata", KeyOphthalmology},
	{"ophthalmolog", KeyOphthalmology},

	{"umum", KeyGeneral},
	{"general", KeyGeneral},
	{"gp", KeyGeneral},
}

// generalPracticeMarkers are looked for in a doctor's raw specialization
// when the query asks for general practice.
var generalPracticeMarkers = []string{"umum", "general"}

var tokenSeparators = regexp.MustCompile(`[\s,\-]+`)

// Keywords returns the de-duplicated keyword set for a specialty text.
func Keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, token := range tokenSeparators.Split(strings.ToLower(text), -1) {
		if token == "" {
			continue
		}
		for _, s := range synonyms {
			if strings.Contains(token, s.surface) {
				out[s.canonical] = struct{}{}
			}
		}
		if len(token) > rawKeywordMinLen {
			out[token] = struct{}{}
		}
	}
	return out
}

// IsEmptyQuery reports whether a specialist text carries no search intent.
func IsEmptyQuery(specialist string) bool {
	s := strings.TrimSpace(specialist)
	return s == "" || strings.EqualFold(s, "null")
}

// Match filters the directory down to active doctors whose specialization
// shares a keyword with specialist. Directory order is preserved.
func Match(specialist string, directory []*model.User) []model.DoctorSearchResult {
	results := make([]model.DoctorSearchResult, 0)
	if IsEmptyQuery(specialist) {
		return results
	}

	query := Keywords(specialist)
	_, wantsGeneral := query[KeyGeneral]

	for _, u := range directory {
		if u == nil || !u.IsActiveDoctor() {
			continue
		}
		if intersects(query, Keywords(u.Specialization)) || (wantsGeneral && isGeneralPractice(u.Specialization)) {
			results = append(results, toResult(u))
		}
	}
	return results
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func isGeneralPractice(specialization string) bool {
	s := strings.ToLower(specialization)
	for _, marker := range generalPracticeMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func toResult(u *model.User) model.DoctorSearchResult {
	label := strings.TrimSpace(u.Specialization)
	if label == "" {
		label = DefaultSpecialistLabel
	}
	years := 0
	if u.ExperienceYears != nil {
		years = *u.ExperienceYears
	}
	return model.DoctorSearchResult{
		ID:              u.ID,
		Name:            u.Name,
		Specialist:      label,
		ExperienceYears: years,
		IsVerified:      strings.TrimSpace(u.STRNumber) != "",
		IsActive:        u.Status == model.UserStatusActive,
		Clinic:          u.Clinic,
	}
}
