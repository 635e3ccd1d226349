package scoring

import (
	"math"

	"credit-risk-workers/internal/models"
)

// Manual logistic reference weights, keyed by slot name. LoanAmount is
// weighted as a ratio to combined income, not as the raw amount.
var (
	manualBias    = -1.5
	manualWeights = map[string]float64{
		SlotCreditHistory:         2.5,
		SlotUtilityPaymentScore:   1.5,
		SlotMobileTransactions:    0.005,
		SlotSocialMediaScore:      0.05,
		SlotApplicantIncome:       0.00005,
		SlotCoapplicantIncome:     0.00003,
		SlotLoanAmount:            -0.8,
		SlotLoanAmountTerm:        -0.001,
		SlotDependents:            -0.1,
		"Gender_Male":             0.05,
		"Married_Yes":             0.3,
		"Education_Not Graduate":  -0.4,
		"Self_Employed_Yes":       -0.1,
		"Property_Area_Semiurban": 0.4,
		"Property_Area_Urban":     0.1,
	}
	// |z| bound before the logistic transform
	maxLogit = 20.0
)

// Manual tree constants.
const (
	treeBaseWithHistory    = 0.7
	treeBaseWithoutHistory = 0.3
	treeUtilityFactor      = 0.3
	treeIncomeTier         = 20000.0
	treeIncomeEffect       = 0.05
	treeLoanRatioLimit     = 5.0
	treeLoanRatioPenalty   = 0.1
)

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// normalizedLoan keeps large loan amounts from dominating the sum.
func normalizedLoan(a models.ApplicantAttributes) float64 {
	return a.LoanAmount / (a.CombinedIncome() + 1)
}

type manualLogistic struct{}

func (manualLogistic) ID() StrategyID { return ManualLogistic }

func (manualLogistic) ScoreAttributes(a models.ApplicantAttributes) float64 {
	return sigmoid(manualLogit(a))
}

// manualLogit returns the clamped weighted sum.
func manualLogit(a models.ApplicantAttributes) float64 {
	vec, _ := BuildVector(a, DefaultFeatureSchema)

	z := manualBias
	for i, slot := range DefaultFeatureSchema {
		x := vec[i]
		if slot == SlotLoanAmount {
			x = normalizedLoan(a)
		}
		z += manualWeights[slot] * x
	}
	return clip(z, -maxLogit, maxLogit)
}

type manualTree struct{}

func (manualTree) ID() StrategyID { return ManualTree }

func (manualTree) ScoreAttributes(a models.ApplicantAttributes) float64 {
	p := treeBaseWithoutHistory
	if a.CreditHistory == 1.0 {
		p = treeBaseWithHistory
	}

	p += (a.UtilityPaymentScore - 0.5) * treeUtilityFactor

	income := a.CombinedIncome()
	if income > treeIncomeTier {
		p += treeIncomeEffect
	} else {
		p -= treeIncomeEffect
	}

	if income > 0 && a.LoanAmount/income > treeLoanRatioLimit {
		p -= treeLoanRatioPenalty
	}

	return clip(p, 0, 1)
}
