package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/platform/gemini"
	"github.com/jwalitptl/healthtown-api/pkg/circuitbreaker"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

type stubGenerator struct {
	text  string
	err   error
	block bool
	calls int
	model string
}

func (s *stubGenerator) GenerateJSON(ctx context.Context, model, prompt string, schema *gemini.Schema) (string, error) {
	s.calls++
	s.model = model
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

const validAnswer = `{
  "analysis": "Likely a viral infection.",
  "possible_conditions": ["Common cold"],
  "recommended_actions": ["Rest"],
  "danger_signs": ["High fever above 40C"],
  "doctor_referral_needed": true,
  "recommended_specialist": "Dokter Umum",
  "urgency_level": "LOW",
  "primary_action": {"category": "SELF_CARE", "reason": "Mild", "next_step": "Drink water"}
}`

func sampleInput() model.ConsultationInput {
	return model.ConsultationInput{
		PatientID: "U001",
		Age:       model.IntPtr(30),
		Gender:    "Male",
		Symptoms:  []string{"cough", "fever"},
		Duration:  "2 days",
		PainLevel: 3,
	}
}

func newClient(gen Generator, cfg Config) *Client {
	return NewClient(gen, cfg, logger.Nop(), nil)
}

func TestAssess_ValidResponse(t *testing.T) {
	gen := &stubGenerator{text: "```json\n" + validAnswer + "\n```"}
	c := newClient(gen, Config{Model: "gemini-test"})

	out, err := c.Assess(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "Likely a viral infection.", out.Analysis)
	assert.Equal(t, model.UrgencyLow, out.UrgencyLevel)
	assert.Equal(t, model.ActionSelfCare, out.PrimaryAction.Category)
	assert.Equal(t, "Dokter Umum", out.Specialist())
	assert.Equal(t, "gemini-test", gen.model)
}

func TestAssess_FallbackOnBackendFailures(t *testing.T) {
	cases := map[string]*stubGenerator{
		"network error":  {err: errors.New("connection refused")},
		"api error":      {err: &gemini.APIError{StatusCode: 500, Message: "boom"}},
		"no json":        {text: "I cannot help with that"},
		"malformed json": {text: `{"analysis": "x",`},
		"unknown enum":   {text: `{"analysis":"x","urgency_level":"EXTREME","primary_action":{"category":"SELF_CARE"}}`},
		"empty analysis": {text: `{"analysis":"  ","urgency_level":"LOW","primary_action":{"category":"SELF_CARE"}}`},
		"bad category":   {text: `{"analysis":"x","urgency_level":"LOW","primary_action":{"category":"PRAY"}}`},
	}

	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			c := newClient(gen, Config{})
			out, err := c.Assess(context.Background(), sampleInput())
			require.NoError(t, err)
			assert.Equal(t, Fallback(LanguageEnglish), out)
		})
	}
}

func TestAssess_TimeoutYieldsFallback(t *testing.T) {
	gen := &stubGenerator{block: true}
	c := newClient(gen, Config{Timeout: 20 * time.Millisecond})

	out, err := c.Assess(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "AI agent cannot process the request at this time.", out.Analysis)
}

func TestAssess_CallerCancellationIsAnError(t *testing.T) {
	gen := &stubGenerator{block: true}
	c := newClient(gen, Config{Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out, err := c.Assess(ctx, sampleInput())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssess_AlreadyCancelled(t *testing.T) {
	gen := &stubGenerator{text: validAnswer}
	c := newClient(gen, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Assess(ctx, sampleInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gen.calls)
}

func TestAssess_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	gen := &stubGenerator{err: errors.New("unavailable")}
	c := newClient(gen, Config{MaxFailures: 2, BreakerReset: time.Hour})

	for i := 0; i < 4; i++ {
		out, err := c.Assess(context.Background(), sampleInput())
		require.NoError(t, err)
		assert.True(t, out.DoctorReferralNeeded)
	}
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, circuitbreaker.StateOpen, c.BreakerState())
}

func TestAssess_ModelResolver(t *testing.T) {
	gen := &stubGenerator{text: validAnswer}
	c := NewClient(gen, Config{Model: "default-model"}, logger.Nop(), nil,
		WithModelResolver(func(context.Context) string { return "admin-model" }))

	_, err := c.Assess(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "admin-model", gen.model)
}

func TestFallback_Values(t *testing.T) {
	en := Fallback(LanguageEnglish)
	assert.Equal(t, "AI agent cannot process the request at this time.", en.Analysis)
	assert.Equal(t, []string{"System Error"}, en.PossibleConditions)
	assert.Equal(t, []string{"Please consult a doctor manually."}, en.RecommendedActions)
	assert.Empty(t, en.DangerSigns)
	assert.NotNil(t, en.DangerSigns)
	assert.True(t, en.DoctorReferralNeeded)
	assert.Equal(t, "General Practitioner", en.Specialist())
	assert.Equal(t, model.UrgencyMedium, en.UrgencyLevel)
	assert.Equal(t, model.ActionDoctorConsult, en.PrimaryAction.Category)
	assert.Equal(t, "A system error occurred during AI analysis.", en.PrimaryAction.Reason)
	assert.Equal(t, "Visit the nearest clinic.", en.PrimaryAction.NextStep)

	id := Fallback(LanguageIndonesian)
	assert.Equal(t, "Dokter Umum", id.Specialist())
	assert.Equal(t, []string{"Kesalahan Sistem"}, id.PossibleConditions)

	// fresh value per call
	en.PossibleConditions[0] = "changed"
	assert.Equal(t, "System Error", Fallback(LanguageEnglish).PossibleConditions[0])
}
