package application

import (
	"context"
	"time"
)

const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// Section keys, one per jsonb column on the applications table. Every
// merge touches exactly one of these so sections can never clobber
// each other.
const (
	SectionBasicData     = "basic_data"
	SectionAddresses     = "addresses"
	SectionCoApplicant   = "co_applicant"
	SectionReferences    = "references"
	SectionPreviousLoans = "previous_loans"
)

type Entity struct {
	ID            string         `json:"id"`
	ApplicantRef  string         `json:"applicant_ref"`
	Status        string         `json:"status"`
	BasicData     map[string]any `json:"basic_data"`
	Addresses     map[string]any `json:"addresses"`
	CoApplicant   map[string]any `json:"co_applicant"`
	References    map[string]any `json:"references"`
	PreviousLoans map[string]any `json:"previous_loans"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Section returns the committed fields for one section key, never nil.
func (e *Entity) Section(key string) map[string]any {
	var src map[string]any
	switch key {
	case SectionBasicData:
		src = e.BasicData
	case SectionAddresses:
		src = e.Addresses
	case SectionCoApplicant:
		src = e.CoApplicant
	case SectionReferences:
		src = e.References
	case SectionPreviousLoans:
		src = e.PreviousLoans
	}
	if src == nil {
		return map[string]any{}
	}
	return src
}

type ListFilter struct {
	Status string
	Limit  int32
	Offset int32
}

type StatusChange struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"application_id"`
	Actor         string    `json:"actor"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	ChangedAt     time.Time `json:"changed_at"`
}

type Repository interface {
	Create(ctx context.Context, applicantRef string, basicData map[string]any) (*Entity, error)
	GetByID(ctx context.Context, id string) (*Entity, error)
	MergeSection(ctx context.Context, id, sectionKey string, fields map[string]any) error
	SetStatus(ctx context.Context, id, status string) (*Entity, error)
	Delete(ctx context.Context, id string) error
	ListByApplicant(ctx context.Context, applicantRef, email string, limit, offset int32) ([]Entity, error)
	List(ctx context.Context, f ListFilter) ([]Entity, error)
}

type StatusAuditRepository interface {
	Append(ctx context.Context, applicationID, actor, fromStatus, toStatus string) error
	ListRecent(ctx context.Context, limit int32) ([]StatusChange, error)
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

var sectionKeys = map[string]struct{}{
	SectionBasicData:     {},
	SectionAddresses:     {},
	SectionCoApplicant:   {},
	SectionReferences:    {},
	SectionPreviousLoans: {},
}

func ValidSection(key string) bool {
	_, ok := sectionKeys[key]
	return ok
}
