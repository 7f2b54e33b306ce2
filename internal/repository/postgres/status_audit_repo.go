package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cibilbank/backend/internal/domain/application"
)

type StatusAuditRepository struct {
	pool *pgxpool.Pool
}

func NewStatusAuditRepository(pool *pgxpool.Pool) *StatusAuditRepository {
	return &StatusAuditRepository{pool: pool}
}

func (r *StatusAuditRepository) Append(ctx context.Context, applicationID, actor, fromStatus, toStatus string) error {
	q := `
INSERT INTO application_status_audit (application_id, actor, from_status, to_status)
VALUES ($1, $2, $3, $4)
`
	_, err := r.pool.Exec(ctx, q, applicationID, actor, fromStatus, toStatus)
	return err
}

func (r *StatusAuditRepository) ListRecent(ctx context.Context, limit int32) ([]application.StatusChange, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
SELECT id, application_id, actor, from_status, to_status, changed_at
FROM application_status_audit
ORDER BY changed_at DESC, id DESC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.StatusChange, 0)
	for rows.Next() {
		var item application.StatusChange
		if err := rows.Scan(&item.ID, &item.ApplicationID, &item.Actor, &item.FromStatus, &item.ToStatus, &item.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
