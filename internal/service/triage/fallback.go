package triage

import "github.com/jwalitptl/healthtown-api/internal/model"

// Fallback returns the safe answer used whenever the backend cannot produce
// a usable one. Each call returns a fresh value.
func Fallback(language string) *model.ConsultationOutput {
	if language == LanguageIndonesian {
		return &model.ConsultationOutput{
			Analysis:              "Agen AI tidak dapat memproses permintaan saat ini.",
			PossibleConditions:    []string{"Kesalahan Sistem"},
			RecommendedActions:    []string{"Silakan konsultasi ke dokter secara manual."},
			DangerSigns:           []string{},
			DoctorReferralNeeded:  true,
			RecommendedSpecialist: model.StringPtr("Dokter Umum"),
			UrgencyLevel:          model.UrgencyMedium,
			PrimaryAction: model.PrimaryAction{
				Category: model.ActionDoctorConsult,
				Reason:   "Terjadi kesalahan sistem pada analisis AI.",
				NextStep: "Kunjungi klinik terdekat.",
			},
		}
	}

	return &model.ConsultationOutput{
		Analysis:              "AI agent cannot process the request at this time.",
		PossibleConditions:    []string{"System Error"},
		RecommendedActions:    []string{"Please consult a doctor manually."},
		DangerSigns:           []string{},
		DoctorReferralNeeded:  true,
		RecommendedSpecialist: model.StringPtr("General Practitioner"),
		UrgencyLevel:          model.UrgencyMedium,
		PrimaryAction: model.PrimaryAction{
			Category: model.ActionDoctorConsult,
			Reason:   "A system error occurred during AI analysis.",
			NextStep: "Visit the nearest clinic.",
		},
	}
}
