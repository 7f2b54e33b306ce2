package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cibilbank/backend/internal/apperr"
	"github.com/cibilbank/backend/internal/domain/document"
)

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Upsert replaces the current attachment for (application_id, doc_type)
// in one statement. Readers see either the old row or the new one,
// never a partial file.
func (r *DocumentRepository) Upsert(ctx context.Context, in document.AttachInput) (*document.Attachment, error) {
	q := `
INSERT INTO application_documents (
  application_id, doc_type, doc_number, file_name, content_type, size_bytes, payload
) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (application_id, doc_type)
DO UPDATE SET
  doc_number = EXCLUDED.doc_number,
  file_name = EXCLUDED.file_name,
  content_type = EXCLUDED.content_type,
  size_bytes = EXCLUDED.size_bytes,
  payload = EXCLUDED.payload,
  verified = FALSE,
  updated_at = NOW()
RETURNING id, application_id, doc_type, doc_number, file_name, content_type, size_bytes, verified, created_at, updated_at
`
	out := &document.Attachment{}
	err := r.pool.QueryRow(ctx, q,
		in.ApplicationID, in.DocType, in.DocNumber, in.FileName, in.ContentType, int64(len(in.Payload)), in.Payload,
	).Scan(
		&out.ID, &out.ApplicationID, &out.DocType, &out.DocNumber, &out.FileName,
		&out.ContentType, &out.SizeBytes, &out.Verified, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationID string) ([]document.Attachment, error) {
	q := `
SELECT id, application_id, doc_type, doc_number, file_name, content_type, size_bytes, verified, created_at, updated_at
FROM application_documents
WHERE application_id = $1
ORDER BY doc_type
`
	rows, err := r.pool.Query(ctx, q, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]document.Attachment, 0)
	for rows.Next() {
		var item document.Attachment
		if err := rows.Scan(
			&item.ID, &item.ApplicationID, &item.DocType, &item.DocNumber, &item.FileName,
			&item.ContentType, &item.SizeBytes, &item.Verified, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *DocumentRepository) GetPayload(ctx context.Context, applicationID, docType string) ([]byte, string, error) {
	q := `SELECT payload, content_type FROM application_documents WHERE application_id = $1 AND doc_type = $2`
	var payload []byte
	var contentType string
	err := r.pool.QueryRow(ctx, q, applicationID, docType).Scan(&payload, &contentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperr.ErrNotFound
		}
		return nil, "", err
	}
	return payload, contentType, nil
}

func (r *DocumentRepository) DeleteByApplication(ctx context.Context, applicationID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM application_documents WHERE application_id = $1`, applicationID)
	return err
}
