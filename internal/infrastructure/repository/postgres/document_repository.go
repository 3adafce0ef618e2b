package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	extension TEXT NOT NULL DEFAULT '',
	source_location TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	owner_name TEXT NOT NULL DEFAULT '',
	owner_user_id TEXT NOT NULL DEFAULT '',
	username TEXT NOT NULL DEFAULT '',
	access_level TEXT NOT NULL DEFAULT '',
	approved_at TIMESTAMPTZ,
	effective_at TIMESTAMPTZ,
	ocr_status TEXT NOT NULL,
	raw_text TEXT NOT NULL DEFAULT '',
	is_page_document BOOLEAN NOT NULL DEFAULT FALSE,
	original_document_id TEXT,
	page_number INT,
	ocr_metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_original_page
	ON documents(original_document_id, page_number) WHERE is_page_document;
CREATE INDEX IF NOT EXISTS idx_documents_ocr_status ON documents(ocr_status);
CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, extension, source_location, title, owner_name, owner_user_id, username, access_level, approved_at, effective_at, ocr_status, raw_text, is_page_document, original_document_id, page_number, ocr_metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc        domain.Document
		status     string
		originalID sql.NullString
		pageNumber sql.NullInt32
		metaRaw    []byte
	)
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.Extension, &doc.SourceLocation, &doc.Title,
		&doc.Owner, &doc.OwnerUserID, &doc.Username, &doc.AccessLevel,
		&doc.ApprovedAt, &doc.EffectiveAt, &status, &doc.RawText,
		&doc.IsPageDocument, &originalID, &pageNumber, &metaRaw,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.OCRStatus = domain.OCRStatus(status)
	if originalID.Valid {
		doc.OriginalDocumentID = originalID.String
	}
	if pageNumber.Valid {
		doc.PageNumber = int(pageNumber.Int32)
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &doc.OCRMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal ocr metadata: %w", err)
		}
	}
	return &doc, nil
}

func metadataJSON(meta domain.OCRMetadata) ([]byte, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal ocr metadata: %w", err)
	}
	return raw, nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func nullablePage(page int) any {
	if page == 0 {
		return nil
	}
	return page
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	metaRaw, err := metadataJSON(doc.OCRMetadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, extension, source_location, title, owner_name, owner_user_id, username, access_level,
	approved_at, effective_at, ocr_status, raw_text, is_page_document, original_document_id, page_number,
	ocr_metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`,
		doc.ID, doc.Filename, doc.Extension, doc.SourceLocation, doc.Title,
		doc.Owner, doc.OwnerUserID, doc.Username, doc.AccessLevel,
		doc.ApprovedAt, doc.EffectiveAt, string(doc.OCRStatus), doc.RawText,
		doc.IsPageDocument, nullableID(doc.OriginalDocumentID), nullablePage(doc.PageNumber),
		metaRaw, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) SetStatus(ctx context.Context, id string, status domain.OCRStatus, meta domain.OCRMetadata) (*domain.Document, error) {
	patch, err := metadataJSON(meta)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
UPDATE documents
SET ocr_status = $2, ocr_metadata = ocr_metadata || $3::jsonb, updated_at = $4
WHERE id = $1
RETURNING `+documentColumns+`
`, id, string(status), patch, time.Now().UTC())

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "set status", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("update document status: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) SaveFullResult(ctx context.Context, id, text string, meta domain.OCRMetadata) (*domain.Document, error) {
	patch, err := metadataJSON(meta)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
UPDATE documents
SET ocr_status = $2, raw_text = $3, ocr_metadata = ocr_metadata || $4::jsonb, updated_at = $5
WHERE id = $1
RETURNING `+documentColumns+`
`, id, string(domain.StatusCompleted), text, patch, time.Now().UTC())

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "save full result", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("save full result: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) UpsertPage(ctx context.Context, page *domain.Document) (*domain.Document, error) {
	metaRaw, err := metadataJSON(page.OCRMetadata)
	if err != nil {
		return nil, err
	}

	// Duplicate and out-of-order page submissions overwrite the existing row.
	row := r.db.QueryRowContext(ctx, `
INSERT INTO documents (
	id, filename, extension, source_location, title, owner_name, owner_user_id, username, access_level,
	approved_at, effective_at, ocr_status, raw_text, is_page_document, original_document_id, page_number,
	ocr_metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,TRUE,$14,$15,$16,$17,$18)
ON CONFLICT (original_document_id, page_number) WHERE is_page_document
DO UPDATE SET
	raw_text = EXCLUDED.raw_text,
	ocr_status = EXCLUDED.ocr_status,
	ocr_metadata = EXCLUDED.ocr_metadata,
	updated_at = EXCLUDED.updated_at
RETURNING `+documentColumns+`
`,
		page.ID, page.Filename, page.Extension, page.SourceLocation, page.Title,
		page.Owner, page.OwnerUserID, page.Username, page.AccessLevel,
		page.ApprovedAt, page.EffectiveAt, string(page.OCRStatus), page.RawText,
		page.OriginalDocumentID, page.PageNumber,
		metaRaw, page.CreatedAt, page.UpdatedAt,
	)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("upsert page document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListPages(ctx context.Context, originalID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE original_document_id = $1 AND is_page_document
ORDER BY page_number
`, originalID)
	if err != nil {
		return nil, fmt.Errorf("list page documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *DocumentRepository) DeletePages(ctx context.Context, originalID string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM documents
WHERE original_document_id = $1 AND is_page_document
`, originalID)
	if err != nil {
		return fmt.Errorf("delete page documents: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ClearResult(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE documents
SET ocr_status = $2, raw_text = '', ocr_metadata = '{}'::jsonb, updated_at = $3
WHERE id = $1
RETURNING `+documentColumns+`
`, id, string(domain.StatusPending), time.Now().UTC())

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "clear result", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("clear document result: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListByStatus(ctx context.Context, status domain.OCRStatus) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE ocr_status = $1 AND NOT is_page_document
ORDER BY updated_at DESC
`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list documents by status: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *DocumentRepository) ListOriginals(ctx context.Context, limit, offset int) ([]domain.DocumentSummary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
SELECT count(*) FROM documents WHERE NOT is_page_document
`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count original documents: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT d.id, d.filename, d.extension, d.source_location, d.title, d.owner_name, d.owner_user_id, d.username, d.access_level,
	d.approved_at, d.effective_at, d.ocr_status, d.raw_text, d.is_page_document, d.original_document_id, d.page_number,
	d.ocr_metadata, d.created_at, d.updated_at, count(p.id) AS page_count
FROM documents d
LEFT JOIN documents p ON p.original_document_id = d.id AND p.is_page_document
WHERE NOT d.is_page_document
GROUP BY d.id
ORDER BY d.created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list original documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary
	for rows.Next() {
		var (
			doc        domain.Document
			status     string
			originalID sql.NullString
			pageNumber sql.NullInt32
			metaRaw    []byte
			pageCount  int
		)
		err := rows.Scan(
			&doc.ID, &doc.Filename, &doc.Extension, &doc.SourceLocation, &doc.Title,
			&doc.Owner, &doc.OwnerUserID, &doc.Username, &doc.AccessLevel,
			&doc.ApprovedAt, &doc.EffectiveAt, &status, &doc.RawText,
			&doc.IsPageDocument, &originalID, &pageNumber, &metaRaw,
			&doc.CreatedAt, &doc.UpdatedAt, &pageCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan original document: %w", err)
		}
		doc.OCRStatus = domain.OCRStatus(status)
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &doc.OCRMetadata); err != nil {
				return nil, 0, fmt.Errorf("unmarshal ocr metadata: %w", err)
			}
		}
		summaries = append(summaries, domain.DocumentSummary{Document: doc, PageCount: pageCount})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate original documents: %w", err)
	}
	return summaries, total, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}
