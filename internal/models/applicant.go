package models

// Categorical attribute values as captured by the application form.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	Yes = "Yes"
	No  = "No"

	EducationGraduate    = "Graduate"
	EducationNotGraduate = "Not Graduate"

	PropertyAreaRural     = "Rural"
	PropertyAreaSemiurban = "Semiurban"
	PropertyAreaUrban     = "Urban"
)

// LoanTerms are the loan durations, in months, offered on the form.
var LoanTerms = []int{360, 240, 180, 120}

// ApplicantAttributes is the raw, fully populated input for one scoring pass.
type ApplicantAttributes struct {
	Gender              string  `json:"gender"`
	Married             string  `json:"married"`
	Dependents          int     `json:"dependents"`
	Education           string  `json:"education"`
	SelfEmployed        string  `json:"selfEmployed"`
	ApplicantIncome     float64 `json:"applicantIncome"`
	CoapplicantIncome   float64 `json:"coapplicantIncome"`
	LoanAmount          float64 `json:"loanAmount"` // thousands
	LoanTermMonths      int     `json:"loanTermMonths"`
	CreditHistory       float64 `json:"creditHistory"`
	PropertyArea        string  `json:"propertyArea"`
	UtilityPaymentScore float64 `json:"utilityPaymentScore"`
	MobileTransactions  int     `json:"mobileTransactions"`
	SocialMediaScore    int     `json:"socialMediaScore"`
}

// DefaultApplicantAttributes returns the values the form starts with.
// Decoding a partial JSON payload on top of it yields a complete record.
func DefaultApplicantAttributes() ApplicantAttributes {
	return ApplicantAttributes{
		Gender:              GenderMale,
		Married:             No,
		Dependents:          0,
		Education:           EducationGraduate,
		SelfEmployed:        No,
		ApplicantIncome:     5000,
		CoapplicantIncome:   0,
		LoanAmount:          100,
		LoanTermMonths:      360,
		CreditHistory:       1.0,
		PropertyArea:        PropertyAreaUrban,
		UtilityPaymentScore: 0.5,
		MobileTransactions:  50,
		SocialMediaScore:    5,
	}
}

// CombinedIncome is applicant plus co-applicant income.
func (a ApplicantAttributes) CombinedIncome() float64 {
	return a.ApplicantIncome + a.CoapplicantIncome
}

// ApplicantRecord is the unit appended to the record store. Keys follow the
// layout already present in stored collections.
type ApplicantRecord struct {
	RecordID              string   `json:"RecordId"`
	Gender                string   `json:"Gender"`
	Married               string   `json:"Married"`
	Dependents            int      `json:"Dependents"`
	Education             string   `json:"Education"`
	SelfEmployed          string   `json:"Self_Employed"`
	ApplicantIncome       float64  `json:"ApplicantIncome"`
	CoapplicantIncome     float64  `json:"CoapplicantIncome"`
	LoanAmount            float64  `json:"LoanAmount"`
	LoanAmountTerm        int      `json:"Loan_Amount_Term"`
	CreditHistory         float64  `json:"Credit_History"`
	PropertyArea          string   `json:"Property_Area"`
	UtilityPaymentScore   float64  `json:"Utility_Payment_Score"`
	MobileTransactions    int      `json:"Mobile_Transactions"`
	SocialMediaScore      int      `json:"Social_Media_Score"`
	ModelUsed             string   `json:"ModelUsed"`
	ProbabilityOfApproval float64  `json:"ProbabilityOfApproval"`
	Prediction            string   `json:"Prediction"`
	CreditScore           int      `json:"CreditScore"`
	Explanation           []string `json:"Explanation,omitempty"`
	CreatedAt             string   `json:"CreatedAt,omitempty"` // RFC 3339
}
