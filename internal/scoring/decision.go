package scoring

import (
	"math"

	"credit-risk-workers/internal/models"
)

type Decision string

const (
	Approved Decision = "Approved"
	Denied   Decision = "Denied"
)

const (
	approvalThreshold = 0.5
	scoreFloor        = 300
	scoreSpan         = 600
)

// Rationale lines, in the order they can appear.
const (
	ExplainNoCreditHistory  = "No credit history -> lowers approval odds."
	ExplainCreditHistory    = "Positive credit history -> boosts approval odds."
	ExplainLowUtilityScore  = "Low utility payment score -> risk of late bill payments."
	ExplainHighUtilityScore = "High utility payment score -> strong on-time payment history."
)

// Result is the outcome of one scoring pass.
type Result struct {
	Strategy    StrategyID `json:"strategy"`
	Probability float64    `json:"probability"`
	Decision    Decision   `json:"decision"`
	Score       int        `json:"score"`
	Explanation []string   `json:"explanation"`
}

// Decide approves at or above 0.5.
func Decide(p float64) Decision {
	if p >= approvalThreshold {
		return Approved
	}
	return Denied
}

// Score maps a probability onto the 300..900 band.
func Score(p float64) int {
	return int(math.Round(scoreFloor + p*scoreSpan))
}

// Explain returns the rationale lines for attrs. The credit history line
// always comes first.
func Explain(a models.ApplicantAttributes) []string {
	lines := make([]string, 0, 2)
	if a.CreditHistory == 0 {
		lines = append(lines, ExplainNoCreditHistory)
	} else {
		lines = append(lines, ExplainCreditHistory)
	}

	switch {
	case a.UtilityPaymentScore < 0.3:
		lines = append(lines, ExplainLowUtilityScore)
	case a.UtilityPaymentScore > 0.7:
		lines = append(lines, ExplainHighUtilityScore)
	}
	return lines
}

// NewResult derives decision, score and explanation from p.
func NewResult(id StrategyID, p float64, a models.ApplicantAttributes) Result {
	return Result{
		Strategy:    id,
		Probability: p,
		Decision:    Decide(p),
		Score:       Score(p),
		Explanation: Explain(a),
	}
}
