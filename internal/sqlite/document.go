package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/repository"
)

// DocumentRepository implements docstore.Repository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Insert stores a new document
func (r *DocumentRepository) Insert(ctx context.Context, doc *docstore.Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	query := `
		INSERT INTO documents (id, collection, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Collection,
		string(fields),
		doc.CreatedAt.UnixNano(),
		doc.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// Get retrieves a document by collection and ID
func (r *DocumentRepository) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	query := `
		SELECT id, collection, fields, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// Update merges fields into the stored document. A nil value removes the field.
func (r *DocumentRepository) Update(ctx context.Context, collection, id string, fields docstore.Fields, updatedAt time.Time) (*docstore.Document, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET fields = json_patch(fields, ?), updated_at = ?
		WHERE collection = ? AND id = ?
	`, string(patch), updatedAt.UnixNano(), collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, repository.ErrNotFound
	}

	doc, err := scanDocument(tx.QueryRowContext(ctx, `
		SELECT id, collection, fields, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`, collection, id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return doc, nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, collection, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Query returns the documents matching q in q's order
func (r *DocumentRepository) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	query, args := buildDocumentQuery(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

func buildDocumentQuery(q docstore.Query) (string, []any) {
	query := `
		SELECT id, collection, fields, created_at, updated_at
		FROM documents
		WHERE collection = ?
	`
	args := []any{q.Collection}

	for _, c := range q.Where {
		column, colArgs := fieldExpr(c.Field)
		query += " AND " + column + " = ?"
		args = append(args, colArgs...)
		args = append(args, bindValue(c.Value))
	}

	direction := "ASC"
	if q.OrderBy.Desc {
		direction = "DESC"
	}
	orderField := q.OrderBy.Field
	if orderField == "" {
		orderField = docstore.CreatedAtField
	}
	column, colArgs := fieldExpr(orderField)
	query += fmt.Sprintf(" ORDER BY %s %s, seq %s", column, direction, direction)
	args = append(args, colArgs...)

	return query, args
}

// fieldExpr maps a document field to the SQL expression that reads it.
func fieldExpr(field string) (string, []any) {
	switch field {
	case docstore.CreatedAtField:
		return "created_at", nil
	case docstore.UpdatedAtField:
		return "updated_at", nil
	default:
		return "json_extract(fields, ?)", []any{"$." + field}
	}
}

// bindValue converts a filter value to what json_extract yields for it.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func scanDocument(row rowScanner) (*docstore.Document, error) {
	var (
		doc       docstore.Document
		fields    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&doc.ID, &doc.Collection, &fields, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(fields))
	if err := dec.Decode(&doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	if doc.Fields == nil {
		doc.Fields = docstore.Fields{}
	}
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &doc, nil
}
