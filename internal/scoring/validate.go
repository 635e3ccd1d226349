package scoring

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"credit-risk-workers/internal/models"
)

// FieldError names one attribute outside its domain.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every out-of-domain attribute of one applicant.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid applicant attributes: " + strings.Join(parts, "; ")
}

// Validate checks every attribute against its declared domain.
func Validate(a models.ApplicantAttributes) error {
	var errs []FieldError
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for _, c := range categoricals {
		if v := c.value(a); !slices.Contains(c.categories, v) {
			add(c.field, "must be one of %v, got %q", c.categories, v)
		}
	}

	if a.Dependents < 0 || a.Dependents > 3 {
		add("Dependents", "must be between 0 and 3, got %d", a.Dependents)
	}
	if !finiteNonNegative(a.ApplicantIncome) {
		add("ApplicantIncome", "must be a non-negative number")
	}
	if !finiteNonNegative(a.CoapplicantIncome) {
		add("CoapplicantIncome", "must be a non-negative number")
	}
	if !finiteNonNegative(a.LoanAmount) {
		add("LoanAmount", "must be a non-negative number")
	}
	if !slices.Contains(models.LoanTerms, a.LoanTermMonths) {
		add("Loan_Amount_Term", "must be one of %v, got %d", models.LoanTerms, a.LoanTermMonths)
	}
	if a.CreditHistory != 0 && a.CreditHistory != 1 {
		add("Credit_History", "must be 0.0 or 1.0, got %v", a.CreditHistory)
	}
	if math.IsNaN(a.UtilityPaymentScore) || a.UtilityPaymentScore < 0 || a.UtilityPaymentScore > 1 {
		add("Utility_Payment_Score", "must be between 0 and 1")
	}
	if a.MobileTransactions < 0 || a.MobileTransactions > 200 {
		add("Mobile_Transactions", "must be between 0 and 200, got %d", a.MobileTransactions)
	}
	if a.SocialMediaScore < 0 || a.SocialMediaScore > 10 {
		add("Social_Media_Score", "must be between 0 and 10, got %d", a.SocialMediaScore)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
