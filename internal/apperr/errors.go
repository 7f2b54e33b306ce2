// Package apperr defines the typed error taxonomy shared by the
// application, step, document, and eligibility services. Handlers map
// these onto HTTP statuses; services never swallow them.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrFileTooLarge       = errors.New("file_too_large")
	ErrUnsupportedType    = errors.New("unsupported_type")
	ErrMissingDocNumber   = errors.New("missing_doc_number")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrUnknownStep        = errors.New("unknown_step")
	ErrUnknownSection     = errors.New("unknown_section")
)

// IncompleteStepError reports the required fields still missing for a
// wizard step. It is re-enterable, never fatal.
type IncompleteStepError struct {
	Step    string
	Missing []string
}

func (e *IncompleteStepError) Error() string {
	return fmt.Sprintf("incomplete_step %s: missing %s", e.Step, strings.Join(e.Missing, ","))
}

// InvalidApplicantError carries the upstream eligibility service's
// validation message verbatim. Not retryable.
type InvalidApplicantError struct {
	Message string
}

func (e *InvalidApplicantError) Error() string {
	if e.Message == "" {
		return "invalid_applicant"
	}
	return "invalid_applicant: " + e.Message
}

func IsIncompleteStep(err error) (*IncompleteStepError, bool) {
	var target *IncompleteStepError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func IsInvalidApplicant(err error) (*InvalidApplicantError, bool) {
	var target *InvalidApplicantError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
