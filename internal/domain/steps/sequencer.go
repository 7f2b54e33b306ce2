package steps

import (
	"context"
	"strings"

	"github.com/cibilbank/backend/internal/apperr"
	"github.com/cibilbank/backend/internal/domain/application"
)

type Step string

const (
	StepBasicData        Step = "basic_data"
	StepPresentAddress   Step = "present_address"
	StepPermanentAddress Step = "permanent_address"
	StepOfficeAddress    Step = "office_address"
	StepCoApplicant      Step = "co_applicant"
	StepReferences       Step = "references"
	StepPreviousLoans    Step = "previous_loans"
	StepDocuments        Step = "documents"
)

// Order is the fixed wizard sequence presented to an applicant.
var Order = []Step{
	StepBasicData,
	StepPresentAddress,
	StepPermanentAddress,
	StepOfficeAddress,
	StepCoApplicant,
	StepReferences,
	StepPreviousLoans,
	StepDocuments,
}

// requiredFields is the single declarative required-field table. A step
// absent from this map has no mandatory fields and may be skipped
// outright without creating a fragment.
var requiredFields = map[Step][]string{
	StepBasicData: {
		"name", "mobile", "email", "dob", "city", "pincode",
		"monthly_income", "loan_amount", "pan", "aadhaar",
	},
	StepPresentAddress: {
		"present_line1", "present_pincode", "present_city",
		"present_state", "present_email", "present_phone",
	},
	StepPermanentAddress: {
		"permanent_line1", "permanent_pincode", "permanent_city",
		"permanent_state", "permanent_email", "permanent_phone",
	},
	StepReferences: {
		"ref1_name", "ref1_relationship", "ref1_email", "ref1_phone",
		"ref2_name", "ref2_relationship", "ref2_email", "ref2_phone",
	},
}

// sectionForStep maps each fragment-bearing step onto the application
// section its fields commit into. The documents step has no section;
// its completion is tracked on the document attachments themselves.
var sectionForStep = map[Step]string{
	StepBasicData:        application.SectionBasicData,
	StepPresentAddress:   application.SectionAddresses,
	StepPermanentAddress: application.SectionAddresses,
	StepOfficeAddress:    application.SectionAddresses,
	StepCoApplicant:      application.SectionCoApplicant,
	StepReferences:       application.SectionReferences,
	StepPreviousLoans:    application.SectionPreviousLoans,
}

func ValidStep(s Step) bool {
	for _, step := range Order {
		if step == s {
			return true
		}
	}
	return false
}

func Optional(s Step) bool {
	if s == StepDocuments {
		return false
	}
	_, required := requiredFields[s]
	return !required
}

// RequiredFields returns a copy of the mandatory field names for a step.
func RequiredFields(s Step) []string {
	fields := requiredFields[s]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// MissingFields reports which required fields of a step are absent or
// blank in the given field set.
func MissingFields(s Step, fields map[string]any) []string {
	missing := []string{}
	for _, name := range requiredFields[s] {
		if !present(fields, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func present(fields map[string]any, name string) bool {
	v, ok := fields[name]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// DocumentChecker reports whether every required document type for an
// application has a current attachment.
type DocumentChecker interface {
	IsComplete(ctx context.Context, applicationID string) (bool, error)
}

type ApplicationStore interface {
	Get(ctx context.Context, id string) (*application.Entity, error)
	MergeSection(ctx context.Context, id, sectionKey string, fields map[string]any) error
}

type Sequencer struct {
	apps      ApplicationStore
	fragments FragmentStore
	documents DocumentChecker
}

func NewSequencer(apps ApplicationStore, fragments FragmentStore, documents DocumentChecker) *Sequencer {
	return &Sequencer{apps: apps, fragments: fragments, documents: documents}
}

// Start returns the entry step of the wizard. No application exists yet.
func (s *Sequencer) Start() Step {
	return Order[0]
}

// Resume returns the earliest incomplete step for an existing
// application, considering both committed sections and uncommitted
// fragments. When everything is satisfied it returns the documents step.
func (s *Sequencer) Resume(ctx context.Context, applicationID string) (Step, error) {
	record, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return "", err
	}

	for _, step := range Order {
		if Optional(step) {
			continue
		}
		done, err := s.stepSatisfied(ctx, record, step)
		if err != nil {
			return "", err
		}
		if !done {
			return step, nil
		}
	}
	return StepDocuments, nil
}

// CanAdvance reports whether the wizard may leave fromStep. Optional
// steps always pass. A failure is an IncompleteStepError listing the
// missing field names.
func (s *Sequencer) CanAdvance(ctx context.Context, applicationID string, fromStep Step) error {
	if !ValidStep(fromStep) {
		return apperr.ErrUnknownStep
	}
	if Optional(fromStep) {
		return nil
	}

	record, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return err
	}

	if fromStep == StepDocuments {
		complete, err := s.documents.IsComplete(ctx, applicationID)
		if err != nil {
			return err
		}
		if !complete {
			return &apperr.IncompleteStepError{Step: string(fromStep), Missing: []string{"documents"}}
		}
		return nil
	}

	merged, err := s.visibleFields(ctx, record, fromStep)
	if err != nil {
		return err
	}
	if missing := MissingFields(fromStep, merged); len(missing) > 0 {
		return &apperr.IncompleteStepError{Step: string(fromStep), Missing: missing}
	}
	return nil
}

func (s *Sequencer) stepSatisfied(ctx context.Context, record *application.Entity, step Step) (bool, error) {
	if step == StepDocuments {
		return s.documents.IsComplete(ctx, record.ID)
	}
	merged, err := s.visibleFields(ctx, record, step)
	if err != nil {
		return false, err
	}
	return len(MissingFields(step, merged)) == 0, nil
}

// visibleFields overlays the step's uncommitted fragment on top of the
// committed section, fragment winning per field.
func (s *Sequencer) visibleFields(ctx context.Context, record *application.Entity, step Step) (map[string]any, error) {
	merged := map[string]any{}
	for k, v := range record.Section(sectionForStep[step]) {
		merged[k] = v
	}
	fragment, err := s.fragments.Load(ctx, record.ID, step)
	if err != nil {
		return nil, err
	}
	for k, v := range fragment {
		merged[k] = v
	}
	return merged, nil
}
