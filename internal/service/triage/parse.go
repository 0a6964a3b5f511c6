package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/validator"
)

var ErrNoJSON = errors.New("no JSON object in model response")

// ExtractJSON strips markdown fences and returns the text between the first
// '{' and the last '}'.
func ExtractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// ParseOutput decodes and validates a model answer.
func ParseOutput(text string, v *validator.Validator) (*model.ConsultationOutput, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var out model.ConsultationOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	out.UrgencyLevel = model.UrgencyLevel(strings.ToUpper(strings.TrimSpace(string(out.UrgencyLevel))))
	out.PrimaryAction.Category = model.ActionCategory(strings.ToUpper(strings.TrimSpace(string(out.PrimaryAction.Category))))

	if err := v.Struct(out); err != nil {
		return nil, fmt.Errorf("model response failed validation: %w", err)
	}

	out.Normalize()
	return &out, nil
}
