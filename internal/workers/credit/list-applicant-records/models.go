// internal/workers/credit/list-applicant-records/models.go
package listapplicantrecords

import "credit-risk-workers/internal/models"

type Input struct {
	Collection string `json:"collection,omitempty"`
}

type Output struct {
	Collection string                   `json:"collection"`
	Records    []models.ApplicantRecord `json:"records"`
	Count      int                      `json:"count"`
	Truncated  bool                     `json:"truncated,omitempty"`
}
