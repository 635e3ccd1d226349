// internal/workers/credit/score-applicant/models.go
package scoreapplicant

type Input struct {
	Applicant map[string]interface{} `json:"applicant"`
	Strategy  string                 `json:"strategy,omitempty"`
}

type Output struct {
	Probability float64  `json:"probability"`
	Decision    string   `json:"decision"`
	Score       int      `json:"score"`
	Explanation []string `json:"explanation"`
	Strategy    string   `json:"strategy"`
}
