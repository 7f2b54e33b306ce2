package steps

import (
	"context"

	"github.com/cibilbank/backend/internal/apperr"
)

// FragmentStore holds in-progress step data keyed by application and
// step. Fragments are disposable: losing one before commit is a
// re-enterable event, never an error, so Load reports a miss as an
// empty field set.
type FragmentStore interface {
	Save(ctx context.Context, applicationID string, step Step, fields map[string]any) error
	Load(ctx context.Context, applicationID string, step Step) (map[string]any, error)
	Delete(ctx context.Context, applicationID string, step Step) error
}

// FragmentService mediates all fragment access: it validates the step,
// checks the application exists, and owns the commit path into the
// application record.
type FragmentService struct {
	apps      ApplicationStore
	fragments FragmentStore
}

func NewFragmentService(apps ApplicationStore, fragments FragmentStore) *FragmentService {
	return &FragmentService{apps: apps, fragments: fragments}
}

// Save upserts fields into the step's fragment, last write wins per
// field. The documents step carries no fragment.
func (s *FragmentService) Save(ctx context.Context, applicationID string, step Step, fields map[string]any) error {
	if !ValidStep(step) || step == StepDocuments {
		return apperr.ErrUnknownStep
	}
	if _, err := s.apps.Get(ctx, applicationID); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	return s.fragments.Save(ctx, applicationID, step, fields)
}

func (s *FragmentService) Load(ctx context.Context, applicationID string, step Step) (map[string]any, error) {
	if !ValidStep(step) || step == StepDocuments {
		return nil, apperr.ErrUnknownStep
	}
	if _, err := s.apps.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.fragments.Load(ctx, applicationID, step)
}

// Commit merges the step's fragment into the matching application
// section, then drops the fragment. The section merge happens first, so
// a failed merge leaves both the record and the fragment untouched.
// Committing an unchanged fragment twice yields the same final record
// state, and committing an absent fragment is a no-op.
func (s *FragmentService) Commit(ctx context.Context, applicationID string, step Step) error {
	if !ValidStep(step) || step == StepDocuments {
		return apperr.ErrUnknownStep
	}
	if _, err := s.apps.Get(ctx, applicationID); err != nil {
		return err
	}

	fields, err := s.fragments.Load(ctx, applicationID, step)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.apps.MergeSection(ctx, applicationID, sectionForStep[step], fields); err != nil {
		return err
	}
	// The fragment is stale now. A failed delete only leaves it as a
	// read-through copy of committed data, which a re-commit tolerates.
	_ = s.fragments.Delete(ctx, applicationID, step)
	return nil
}
