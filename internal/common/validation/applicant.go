// Package validation checks raw applicant payloads from jobs and HTTP bodies
// and completes them with the form defaults.
package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/scoring"
)

//go:embed applicant.schema.json
var applicantSchemaJSON []byte

var applicantSchema = mustSchema(applicantSchemaJSON)

func mustSchema(b []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded applicant schema: %v", err))
	}
	return s
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// ValidatePayload checks the raw payload against the applicant schema.
// Absent fields are allowed; they take the form defaults.
func ValidatePayload(payload map[string]interface{}) (*ValidationResult, error) {
	result, err := applicantSchema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if prop, ok := desc.Details()["property"].(string); ok && field == "(root)" {
			field = prop
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// DecodeApplicant validates payload, lays it over the form defaults and runs
// the domain checks on the result. A nil payload yields the defaults.
func DecodeApplicant(payload map[string]interface{}) (models.ApplicantAttributes, *ValidationResult, error) {
	attrs := models.DefaultApplicantAttributes()
	if payload == nil {
		return attrs, &ValidationResult{Valid: true}, nil
	}

	result, err := ValidatePayload(payload)
	if err != nil {
		return attrs, nil, err
	}
	if !result.Valid {
		return attrs, result, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return attrs, nil, fmt.Errorf("encode applicant: %w", err)
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return attrs, nil, fmt.Errorf("decode applicant: %w", err)
	}

	if err := scoring.Validate(attrs); err != nil {
		result.Valid = false
		if verr, ok := err.(*scoring.ValidationError); ok {
			for _, f := range verr.Fields {
				result.Errors = append(result.Errors, ValidationError{Field: f.Field, Message: f.Message, Code: "DOMAIN_VIOLATION"})
			}
		} else {
			result.Errors = append(result.Errors, ValidationError{Field: "(root)", Message: err.Error(), Code: "DOMAIN_VIOLATION"})
		}
	}
	return attrs, result, nil
}

// DecodeApplicantJSON is DecodeApplicant for a raw JSON object.
func DecodeApplicantJSON(data []byte) (models.ApplicantAttributes, *ValidationResult, error) {
	if len(data) == 0 {
		return DecodeApplicant(nil)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.DefaultApplicantAttributes(), nil, fmt.Errorf("applicant is not a JSON object: %w", err)
	}
	return DecodeApplicant(payload)
}
