package scoring

import (
	"fmt"

	"credit-risk-workers/internal/models"
)

// Numeric slot names, as produced by the training pipeline.
const (
	SlotApplicantIncome     = "ApplicantIncome"
	SlotCoapplicantIncome   = "CoapplicantIncome"
	SlotLoanAmount          = "LoanAmount"
	SlotLoanAmountTerm      = "Loan_Amount_Term"
	SlotCreditHistory       = "Credit_History"
	SlotDependents          = "Dependents"
	SlotUtilityPaymentScore = "Utility_Payment_Score"
	SlotMobileTransactions  = "Mobile_Transactions"
	SlotSocialMediaScore    = "Social_Media_Score"
)

// FeatureSchema is the ordered list of slot names a trained model expects.
type FeatureSchema []string

// FeatureVector is positionally aligned to a FeatureSchema.
type FeatureVector []float64

// DefaultFeatureSchema is the column order the training pipeline emits:
// numeric columns first, then drop-first dummies.
var DefaultFeatureSchema = FeatureSchema{
	SlotDependents,
	SlotApplicantIncome,
	SlotCoapplicantIncome,
	SlotLoanAmount,
	SlotLoanAmountTerm,
	SlotCreditHistory,
	SlotUtilityPaymentScore,
	SlotMobileTransactions,
	SlotSocialMediaScore,
	"Gender_Male",
	"Married_Yes",
	"Education_Not Graduate",
	"Self_Employed_Yes",
	"Property_Area_Semiurban",
	"Property_Area_Urban",
}

// categorical describes one categorical attribute. Categories are sorted,
// the first one is the reference level and never gets a slot.
type categorical struct {
	field      string
	categories []string
	value      func(models.ApplicantAttributes) string
}

var categoricals = []categorical{
	{"Gender", []string{models.GenderFemale, models.GenderMale}, func(a models.ApplicantAttributes) string { return a.Gender }},
	{"Married", []string{models.No, models.Yes}, func(a models.ApplicantAttributes) string { return a.Married }},
	{"Education", []string{models.EducationGraduate, models.EducationNotGraduate}, func(a models.ApplicantAttributes) string { return a.Education }},
	{"Self_Employed", []string{models.No, models.Yes}, func(a models.ApplicantAttributes) string { return a.SelfEmployed }},
	{"Property_Area", []string{models.PropertyAreaRural, models.PropertyAreaSemiurban, models.PropertyAreaUrban}, func(a models.ApplicantAttributes) string { return a.PropertyArea }},
}

type numeric struct {
	slot  string
	value func(models.ApplicantAttributes) float64
}

var numerics = []numeric{
	{SlotApplicantIncome, func(a models.ApplicantAttributes) float64 { return a.ApplicantIncome }},
	{SlotCoapplicantIncome, func(a models.ApplicantAttributes) float64 { return a.CoapplicantIncome }},
	{SlotLoanAmount, func(a models.ApplicantAttributes) float64 { return a.LoanAmount }},
	{SlotLoanAmountTerm, func(a models.ApplicantAttributes) float64 { return float64(a.LoanTermMonths) }},
	{SlotCreditHistory, func(a models.ApplicantAttributes) float64 { return a.CreditHistory }},
	{SlotDependents, func(a models.ApplicantAttributes) float64 { return float64(a.Dependents) }},
	{SlotUtilityPaymentScore, func(a models.ApplicantAttributes) float64 { return a.UtilityPaymentScore }},
	{SlotMobileTransactions, func(a models.ApplicantAttributes) float64 { return float64(a.MobileTransactions) }},
	{SlotSocialMediaScore, func(a models.ApplicantAttributes) float64 { return float64(a.SocialMediaScore) }},
}

func dummySlot(field, category string) string {
	return field + "_" + category
}

// DivergenceKind tells which side of the attribute/schema mapping is missing.
type DivergenceKind string

const (
	// DivergenceMissingSlot: an attribute or active dummy has no slot in the schema.
	DivergenceMissingSlot DivergenceKind = "missing_slot"
	// DivergenceUnmappedSlot: a schema slot matches no known attribute and stays zero.
	DivergenceUnmappedSlot DivergenceKind = "unmapped_slot"
)

// Divergence is a non-fatal mismatch between engine and model schema.
type Divergence struct {
	Kind DivergenceKind
	Name string
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Name)
}

// Index returns the position of slot in the schema, or -1.
func (s FeatureSchema) Index(slot string) int {
	for i, name := range s {
		if name == slot {
			return i
		}
	}
	return -1
}

// Check reports schema slots that no attribute or dummy can ever fill.
func (s FeatureSchema) Check() []Divergence {
	known := make(map[string]struct{}, len(numerics)+8)
	for _, n := range numerics {
		known[n.slot] = struct{}{}
	}
	for _, c := range categoricals {
		for _, category := range c.categories[1:] {
			known[dummySlot(c.field, category)] = struct{}{}
		}
	}

	var out []Divergence
	for _, name := range s {
		if _, ok := known[name]; !ok {
			out = append(out, Divergence{Kind: DivergenceUnmappedSlot, Name: name})
		}
	}
	return out
}

// BuildVector maps attrs onto schema. It never fails: anything the schema
// has no slot for is skipped and reported as a divergence.
func BuildVector(attrs models.ApplicantAttributes, schema FeatureSchema) (FeatureVector, []Divergence) {
	vec := make(FeatureVector, len(schema))
	index := make(map[string]int, len(schema))
	for i, name := range schema {
		index[name] = i
	}

	var divergences []Divergence

	for _, n := range numerics {
		i, ok := index[n.slot]
		if !ok {
			divergences = append(divergences, Divergence{Kind: DivergenceMissingSlot, Name: n.slot})
			continue
		}
		vec[i] = n.value(attrs)
	}

	for _, c := range categoricals {
		value := c.value(attrs)
		if value == c.categories[0] {
			continue
		}
		slot := dummySlot(c.field, value)
		i, ok := index[slot]
		if !ok {
			divergences = append(divergences, Divergence{Kind: DivergenceMissingSlot, Name: slot})
			continue
		}
		vec[i] = 1
	}

	return vec, divergences
}
