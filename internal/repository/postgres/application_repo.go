package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cibilbank/backend/internal/apperr"
	"github.com/cibilbank/backend/internal/domain/application"
)

// sectionColumns whitelists the jsonb column behind each section key.
// "references" needs quoting because it is a reserved word.
var sectionColumns = map[string]string{
	application.SectionBasicData:     "basic_data",
	application.SectionAddresses:     "addresses",
	application.SectionCoApplicant:   "co_applicant",
	application.SectionReferences:    `"references"`,
	application.SectionPreviousLoans: "previous_loans",
}

const applicationColumns = `id, applicant_ref, status, basic_data, addresses, co_applicant, "references", previous_loans, created_at, updated_at`

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func (r *ApplicationRepository) Create(ctx context.Context, applicantRef string, basicData map[string]any) (*application.Entity, error) {
	raw, err := json.Marshal(basicData)
	if err != nil {
		return nil, err
	}

	q := `
INSERT INTO applications (applicant_ref, basic_data)
VALUES ($1, $2)
RETURNING ` + applicationColumns
	return scanApplication(r.pool.QueryRow(ctx, q, applicantRef, raw))
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Entity, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	out, err := scanApplication(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// MergeSection concatenates fields into exactly one jsonb column, so
// concurrent merges into distinct sections cannot interleave.
func (r *ApplicationRepository) MergeSection(ctx context.Context, id, sectionKey string, fields map[string]any) error {
	column, ok := sectionColumns[sectionKey]
	if !ok {
		return apperr.ErrUnknownSection
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	q := `UPDATE applications SET ` + column + ` = ` + column + ` || $2::jsonb, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) SetStatus(ctx context.Context, id, status string) (*application.Entity, error) {
	q := `
UPDATE applications SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + applicationColumns
	out, err := scanApplication(r.pool.QueryRow(ctx, q, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantRef, email string, limit, offset int32) ([]application.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(applicantRef) != "" {
		builder.WriteString(" AND applicant_ref = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, applicantRef)
		argPos++
	}
	if strings.TrimSpace(email) != "" {
		builder.WriteString(" AND basic_data->>'email' = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, email)
		argPos++
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, offset)

	return r.queryApplications(ctx, builder.String(), args...)
}

func (r *ApplicationRepository) List(ctx context.Context, f application.ListFilter) ([]application.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.Status) != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	return r.queryApplications(ctx, builder.String(), args...)
}

func (r *ApplicationRepository) queryApplications(ctx context.Context, q string, args ...any) ([]application.Entity, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Entity, 0)
	for rows.Next() {
		item, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*application.Entity, error) {
	out := &application.Entity{}
	var basicData, addresses, coApplicant, references, previousLoans []byte
	err := row.Scan(
		&out.ID, &out.ApplicantRef, &out.Status,
		&basicData, &addresses, &coApplicant, &references, &previousLoans,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw []byte
		dst *map[string]any
	}{
		{basicData, &out.BasicData},
		{addresses, &out.Addresses},
		{coApplicant, &out.CoApplicant},
		{references, &out.References},
		{previousLoans, &out.PreviousLoans},
	} {
		*pair.dst = map[string]any{}
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
