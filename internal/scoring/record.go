package scoring

import (
	"math"

	"credit-risk-workers/internal/models"
)

// AssembleRecord flattens attributes, strategy and result into the stored
// record layout. RecordID and CreatedAt are left for the store to stamp.
func AssembleRecord(a models.ApplicantAttributes, r Result) models.ApplicantRecord {
	explanation := make([]string, len(r.Explanation))
	copy(explanation, r.Explanation)

	return models.ApplicantRecord{
		Gender:                a.Gender,
		Married:               a.Married,
		Dependents:            a.Dependents,
		Education:             a.Education,
		SelfEmployed:          a.SelfEmployed,
		ApplicantIncome:       a.ApplicantIncome,
		CoapplicantIncome:     a.CoapplicantIncome,
		LoanAmount:            a.LoanAmount,
		LoanAmountTerm:        a.LoanTermMonths,
		CreditHistory:         a.CreditHistory,
		PropertyArea:          a.PropertyArea,
		UtilityPaymentScore:   a.UtilityPaymentScore,
		MobileTransactions:    a.MobileTransactions,
		SocialMediaScore:      a.SocialMediaScore,
		ModelUsed:             string(r.Strategy),
		ProbabilityOfApproval: math.Round(r.Probability*1000) / 1000,
		Prediction:            string(r.Decision),
		CreditScore:           r.Score,
		Explanation:           explanation,
	}
}
