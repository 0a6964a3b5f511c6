package triage

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/platform/gemini"
)

const (
	LanguageEnglish    = "en"
	LanguageIndonesian = "id"
)

// BuildPrompt renders the intake into the instruction sent to the model.
func BuildPrompt(input model.ConsultationInput, language string) string {
	none := "None"
	respondIn := "English"
	if language == LanguageIndonesian {
		none = "Tidak ada"
		respondIn = "Indonesian (Bahasa Indonesia)"
	}

	history := joinNonBlank(input.History)
	if history == "" {
		history = none
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		notes = none
	}

	var b strings.Builder
	b.WriteString("Patient profile:\n")
	if input.Age != nil {
		fmt.Fprintf(&b, "- Age: %d\n", *input.Age)
	}
	fmt.Fprintf(&b, "- Gender: %s\n", input.Gender)
	if input.Weight != nil {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", *input.Weight)
	}
	fmt.Fprintf(&b, "- History: %s\n\n", history)

	b.WriteString("Current complaint:\n")
	fmt.Fprintf(&b, "- Symptoms: %s\n", joinNonBlank(input.Symptoms))
	fmt.Fprintf(&b, "- Duration: %s\n", strings.TrimSpace(input.Duration))
	fmt.Fprintf(&b, "- Pain level: %d/10\n", input.PainLevel)
	fmt.Fprintf(&b, "- Additional notes: %s\n\n", notes)

	fmt.Fprintf(&b, "TASK:\nAct as a professional medical AI assistant. Analyse the symptoms and answer in %s.\n\n", respondIn)

	b.WriteString("DECISION POLICY FOR primary_action.category:\n")
	b.WriteString("1. EMERGENCY: life-threatening signs (chest pain radiating to the back, stroke signs, severe shortness of breath).\n")
	b.WriteString("2. DOCTOR_CONSULT: needs a prescription, a physical examination or a diagnosis (infection, chronic problems).\n")
	b.WriteString("3. OTC_MEDICATION: mild symptoms treatable with over-the-counter medicine (mild flu, ordinary headache).\n")
	b.WriteString("4. SELF_CARE: rest or hydration is enough (fatigue, mild viral illness).\n\n")

	b.WriteString("OUTPUT (JSON object):\n")
	b.WriteString("- analysis: detailed medical reasoning about the symptoms.\n")
	b.WriteString("- possible_conditions: list of candidate conditions.\n")
	b.WriteString("- recommended_actions: list of steps the patient should take now.\n")
	b.WriteString("- danger_signs: critical symptoms that signal danger if they appear.\n")
	b.WriteString("- doctor_referral_needed: boolean.\n")
	b.WriteString("- recommended_specialist: the specialist in standard Indonesian, for example \"Spesialis Jantung\", ")
	b.WriteString("\"Spesialis Anak\", \"Spesialis Kulit\", \"Dokter Umum\", \"Spesialis Syaraf\", \"Spesialis Mata\". Use \"Dokter Umum\" when unsure.\n")
	b.WriteString("- urgency_level: one of [LOW, MEDIUM, HIGH, CRITICAL].\n")
	b.WriteString("- primary_action: object with category (one of [SELF_CARE, OTC_MEDICATION, DOCTOR_CONSULT, EMERGENCY]), ")
	b.WriteString("reason (why this category) and next_step (the single most important step now).\n")

	return b.String()
}

func joinNonBlank(items []string) string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// ResponseSchema is the responseSchema sent with every request.
func ResponseSchema() *gemini.Schema {
	str := func(desc string) *gemini.Schema { return &gemini.Schema{Type: "STRING", Description: desc} }
	list := func(desc string) *gemini.Schema {
		return &gemini.Schema{Type: "ARRAY", Items: &gemini.Schema{Type: "STRING"}, Description: desc}
	}

	return &gemini.Schema{
		Type: "OBJECT",
		Properties: map[string]*gemini.Schema{
			"analysis":               str("Detailed medical reasoning and analysis of symptoms."),
			"possible_conditions":    list("List of potential conditions."),
			"recommended_actions":    list("List of general advice."),
			"danger_signs":           list("Critical symptoms requiring immediate ER attention."),
			"doctor_referral_needed": {Type: "BOOLEAN"},
			"recommended_specialist": {Type: "STRING", Description: "Type of specialist needed, or null.", Nullable: true},
			"urgency_level":          {Type: "STRING", Enum: []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}},
			"primary_action": {
				Type: "OBJECT",
				Properties: map[string]*gemini.Schema{
					"category":  {Type: "STRING", Enum: []string{"SELF_CARE", "OTC_MEDICATION", "DOCTOR_CONSULT", "EMERGENCY"}},
					"reason":    str("Short explanation why this action was chosen."),
					"next_step": str("The single most important immediate step."),
				},
				Required: []string{"category", "reason", "next_step"},
			},
		},
		Required: []string{
			"analysis", "possible_conditions", "recommended_actions", "danger_signs",
			"doctor_referral_needed", "recommended_specialist", "urgency_level", "primary_action",
		},
	}
}
