package application

import (
	"context"
	"strings"

	"github.com/cibilbank/backend/internal/apperr"
)

// StatusNotifier fan-outs status transitions to connected clients.
// Delivery is best effort.
type StatusNotifier interface {
	NotifyStatusChanged(applicationID, status string)
}

type Service struct {
	repo     Repository
	audit    StatusAuditRepository
	notifier StatusNotifier
}

func NewService(repo Repository, audit StatusAuditRepository, notifier StatusNotifier) *Service {
	return &Service{repo: repo, audit: audit, notifier: notifier}
}

func (s *Service) Create(ctx context.Context, applicantRef string, basicData map[string]any) (*Entity, error) {
	if len(basicData) == 0 {
		return nil, &apperr.IncompleteStepError{Step: SectionBasicData, Missing: []string{"basic_data"}}
	}
	return s.repo.Create(ctx, applicantRef, basicData)
}

func (s *Service) Get(ctx context.Context, id string) (*Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) MergeSection(ctx context.Context, id, sectionKey string, fields map[string]any) error {
	if !ValidSection(sectionKey) {
		return apperr.ErrUnknownSection
	}
	if len(fields) == 0 {
		return nil
	}
	return s.repo.MergeSection(ctx, id, sectionKey, fields)
}

// SetStatus applies an administrative status change. Transitions are
// unordered: any status may follow any status.
func (s *Service) SetStatus(ctx context.Context, id, status, actor string) (*Entity, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidStatus(status) {
		return nil, apperr.ErrInvalidStatus
	}

	prev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Append(ctx, id, actor, prev.Status, status)
	}
	if s.notifier != nil {
		s.notifier.NotifyStatusChanged(id, status)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByApplicant(ctx context.Context, applicantRef, email string, limit, offset int32) ([]Entity, error) {
	if strings.TrimSpace(applicantRef) == "" && strings.TrimSpace(email) == "" {
		return []Entity{}, nil
	}
	return s.repo.ListByApplicant(ctx, applicantRef, email, limit, offset)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Entity, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) RecentStatusChanges(ctx context.Context, limit int32) ([]StatusChange, error) {
	if s.audit == nil {
		return []StatusChange{}, nil
	}
	return s.audit.ListRecent(ctx, limit)
}
