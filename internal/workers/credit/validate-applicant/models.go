// internal/workers/credit/validate-applicant/models.go
package validateapplicant

import (
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
)

type Input struct {
	Applicant map[string]interface{} `json:"applicant"`
}

type Output struct {
	IsValid          bool                         `json:"isValid"`
	Applicant        models.ApplicantAttributes   `json:"applicant"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}
