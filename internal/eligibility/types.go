package eligibility

// ApplicantProfile is the basic-data projection sent to the upstream
// eligibility service.
type ApplicantProfile struct {
	Name           string `json:"name"`
	Mobile         string `json:"mobile"`
	Email          string `json:"email"`
	DOB            string `json:"dob"`
	City           string `json:"city"`
	Pincode        string `json:"pincode"`
	IncomeSource   string `json:"income_source"`
	MonthlyIncome  string `json:"monthly_income"`
	LoanAmount     string `json:"loan_amount"`
	PAN            string `json:"pan"`
	Aadhaar        string `json:"aadhaar"`
	LoanTypeID     string `json:"loan_type_id"`
	PreferredBanks []int  `json:"preferred_banks,omitempty"`
}

type Offer struct {
	BankID       int     `json:"bank_id"`
	BankName     string  `json:"bank_name"`
	Amount       float64 `json:"amount"`
	TenureMonths int     `json:"tenure_months"`
	InterestRate float64 `json:"interest_rate"`
}

type LoanType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DocumentRequirement struct {
	DocType   string `json:"doc_type"`
	Label     string `json:"label"`
	Mandatory bool   `json:"mandatory"`
}
