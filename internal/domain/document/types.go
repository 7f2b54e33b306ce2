package document

import (
	"context"
	"time"
)

const (
	TypePANCard      = "PAN_CARD"
	TypeAadhaarCard  = "AADHAAR_CARD"
	TypeIncomeProof  = "INCOME_PROOF"
	TypePhotograph   = "PHOTOGRAPH"
	TypeBankStmt     = "BANK_STATEMENT"
	TypeSalarySlip   = "SALARY_SLIP"
	TypeAddressProof = "ADDRESS_PROOF"
)

var recognizedTypes = map[string]struct{}{
	TypePANCard:      {},
	TypeAadhaarCard:  {},
	TypeIncomeProof:  {},
	TypePhotograph:   {},
	TypeBankStmt:     {},
	TypeSalarySlip:   {},
	TypeAddressProof: {},
}

// numberedTypes require a document number alongside the file.
var numberedTypes = map[string]struct{}{
	TypePANCard:     {},
	TypeAadhaarCard: {},
}

func RecognizedType(docType string) bool {
	_, ok := recognizedTypes[docType]
	return ok
}

func RequiresNumber(docType string) bool {
	_, ok := numberedTypes[docType]
	return ok
}

type Attachment struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	DocType       string    `json:"doc_type"`
	DocNumber     string    `json:"doc_number,omitempty"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AttachInput struct {
	ApplicationID string
	DocType       string
	DocNumber     string
	FileName      string
	ContentType   string
	Payload       []byte
}

// Status is one row of the per-application document checklist.
type Status struct {
	DocType   string `json:"doc_type"`
	Required  bool   `json:"required"`
	Attached  bool   `json:"attached"`
	Verified  bool   `json:"verified"`
	DocNumber string `json:"doc_number,omitempty"`
}

type Repository interface {
	// Upsert replaces any prior attachment of the same
	// (application_id, doc_type) in a single statement.
	Upsert(ctx context.Context, in AttachInput) (*Attachment, error)
	ListByApplication(ctx context.Context, applicationID string) ([]Attachment, error)
	GetPayload(ctx context.Context, applicationID, docType string) ([]byte, string, error)
	DeleteByApplication(ctx context.Context, applicationID string) error
}
