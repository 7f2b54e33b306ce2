package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cibilbank/backend/internal/apperr"
	"github.com/cibilbank/backend/internal/domain/application"
)

// baselineRequired is the static floor applied to every application even
// when loan-type specific requirements cannot be fetched.
var baselineRequired = []string{TypePANCard, TypeAadhaarCard}

type ApplicationReader interface {
	Get(ctx context.Context, id string) (*application.Entity, error)
}

// RequirementSource resolves the document types a loan type demands.
// The eligibility gateway implements it.
type RequirementSource interface {
	RequiredDocumentTypes(ctx context.Context, loanTypeID string) ([]string, error)
}

type Service struct {
	repo         Repository
	apps         ApplicationReader
	requirements RequirementSource
	maxBytes     int64
}

func NewService(repo Repository, apps ApplicationReader, requirements RequirementSource, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Service{repo: repo, apps: apps, requirements: requirements, maxBytes: maxBytes}
}

// Attach validates and stores one document, replacing any prior
// attachment of the same type. The swap is a single upsert, so callers
// never observe both versions or a partial file.
func (s *Service) Attach(ctx context.Context, in AttachInput) (*Attachment, error) {
	if _, err := s.apps.Get(ctx, in.ApplicationID); err != nil {
		return nil, err
	}

	in.DocType = strings.ToUpper(strings.TrimSpace(in.DocType))
	if !RecognizedType(in.DocType) {
		return nil, apperr.ErrUnsupportedType
	}
	if len(in.Payload) == 0 {
		return nil, fmt.Errorf("%w: empty file", apperr.ErrUnsupportedType)
	}
	if int64(len(in.Payload)) > s.maxBytes {
		return nil, apperr.ErrFileTooLarge
	}
	in.DocNumber = strings.TrimSpace(in.DocNumber)
	if RequiresNumber(in.DocType) && in.DocNumber == "" {
		return nil, apperr.ErrMissingDocNumber
	}

	return s.repo.Upsert(ctx, in)
}

// ListStatus returns the checklist of required document types for the
// application plus any extra types already attached.
func (s *Service) ListStatus(ctx context.Context, applicationID string) ([]Status, error) {
	record, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	attached, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	byType := map[string]Attachment{}
	for _, a := range attached {
		byType[a.DocType] = a
	}

	required := s.requiredTypes(ctx, record)

	out := make([]Status, 0, len(required)+len(byType))
	seen := map[string]struct{}{}
	for _, docType := range required {
		seen[docType] = struct{}{}
		row := Status{DocType: docType, Required: true}
		if a, ok := byType[docType]; ok {
			row.Attached = true
			row.Verified = a.Verified
			row.DocNumber = a.DocNumber
		}
		out = append(out, row)
	}
	extras := []string{}
	for docType := range byType {
		if _, ok := seen[docType]; !ok {
			extras = append(extras, docType)
		}
	}
	sort.Strings(extras)
	for _, docType := range extras {
		a := byType[docType]
		out = append(out, Status{DocType: docType, Attached: true, Verified: a.Verified, DocNumber: a.DocNumber})
	}
	return out, nil
}

// IsComplete is true iff every required document type has a current
// attachment. Verification is not part of completeness.
func (s *Service) IsComplete(ctx context.Context, applicationID string) (bool, error) {
	statuses, err := s.ListStatus(ctx, applicationID)
	if err != nil {
		return false, err
	}
	for _, row := range statuses {
		if row.Required && !row.Attached {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) GetPayload(ctx context.Context, applicationID, docType string) ([]byte, string, error) {
	docType = strings.ToUpper(strings.TrimSpace(docType))
	if !RecognizedType(docType) {
		return nil, "", apperr.ErrUnsupportedType
	}
	return s.repo.GetPayload(ctx, applicationID, docType)
}

// requiredTypes unions the loan-type requirements with the baseline.
// Requirement lookup failures degrade to the baseline rather than
// blocking the wizard.
func (s *Service) requiredTypes(ctx context.Context, record *application.Entity) []string {
	required := append([]string{}, baselineRequired...)
	seen := map[string]struct{}{}
	for _, docType := range required {
		seen[docType] = struct{}{}
	}

	loanTypeID := ""
	if v, ok := record.Section(application.SectionBasicData)["loan_type_id"].(string); ok {
		loanTypeID = strings.TrimSpace(v)
	}
	if s.requirements == nil || loanTypeID == "" {
		return required
	}

	fromGateway, err := s.requirements.RequiredDocumentTypes(ctx, loanTypeID)
	if err != nil {
		return required
	}
	for _, docType := range fromGateway {
		docType = strings.ToUpper(strings.TrimSpace(docType))
		if docType == "" {
			continue
		}
		if _, ok := seen[docType]; ok {
			continue
		}
		seen[docType] = struct{}{}
		required = append(required, docType)
	}
	return required
}
