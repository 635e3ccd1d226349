package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-workers/internal/models"
)

func TestDecodeApplicant_AppliesDefaults(t *testing.T) {
	attrs, result, err := DecodeApplicant(map[string]interface{}{
		"gender":          "Female",
		"applicantIncome": 3200.0,
		"loanTermMonths":  180.0,
		"propertyArea":    "Semiurban",
	})
	require.NoError(t, err)
	require.True(t, result.Valid, result.Error())

	want := models.DefaultApplicantAttributes()
	want.Gender = "Female"
	want.ApplicantIncome = 3200
	want.LoanTermMonths = 180
	want.PropertyArea = "Semiurban"
	assert.Equal(t, want, attrs)
}

func TestDecodeApplicant_NilPayload(t *testing.T) {
	attrs, result, err := DecodeApplicant(nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, models.DefaultApplicantAttributes(), attrs)
}

func TestDecodeApplicant_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		field   string
	}{
		{name: "enum", payload: map[string]interface{}{"propertyArea": "Downtown"}, field: "propertyArea"},
		{name: "range", payload: map[string]interface{}{"mobileTransactions": 250.0}, field: "mobileTransactions"},
		{name: "integer", payload: map[string]interface{}{"dependents": 1.5}, field: "dependents"},
		{name: "type", payload: map[string]interface{}{"applicantIncome": "lots"}, field: "applicantIncome"},
		{name: "credit history", payload: map[string]interface{}{"creditHistory": 0.5}, field: "creditHistory"},
		{name: "loan term", payload: map[string]interface{}{"loanTermMonths": 300.0}, field: "loanTermMonths"},
		{name: "unknown field", payload: map[string]interface{}{"employer": "ACME"}, field: "employer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := DecodeApplicant(tt.payload)
			require.NoError(t, err)
			require.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.NotEmpty(t, result.Errors[0].Code)
		})
	}
}

func TestDecodeApplicantJSON(t *testing.T) {
	attrs, result, err := DecodeApplicantJSON([]byte(`{"creditHistory": 0, "utilityPaymentScore": 0.2}`))
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, 0.0, attrs.CreditHistory)
	assert.Equal(t, 0.2, attrs.UtilityPaymentScore)
	assert.Equal(t, "Urban", attrs.PropertyArea)

	_, _, err = DecodeApplicantJSON([]byte(`[1,2]`))
	assert.Error(t, err)

	attrs, result, err = DecodeApplicantJSON(nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, models.DefaultApplicantAttributes(), attrs)
}
