// internal/workers/credit/store-applicant-record/models.go
package storeapplicantrecord

// Input carries the scoring outcome either nested under result or as the
// flat variables score-applicant completes with. RecordID is derived from
// the job key when the process does not supply one.
type Input struct {
	RecordID   string                 `json:"recordId,omitempty"`
	Applicant  map[string]interface{} `json:"applicant"`
	Strategy   string                 `json:"strategy,omitempty"`
	Result     *ScoreResult           `json:"result,omitempty"`
	Collection string                 `json:"collection,omitempty"`

	Probability *float64 `json:"probability,omitempty"`
	Decision    string   `json:"decision,omitempty"`
	Score       *int     `json:"score,omitempty"`
}

type ScoreResult struct {
	Strategy    string   `json:"strategy,omitempty"`
	Probability *float64 `json:"probability"`
	Decision    string   `json:"decision,omitempty"`
	Score       *int     `json:"score,omitempty"`
	Explanation []string `json:"explanation,omitempty"`
}

type Output struct {
	RecordID   string `json:"recordId"`
	Collection string `json:"collection"`
	CreatedAt  string `json:"createdAt"`
}
