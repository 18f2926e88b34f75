package store

import (
	"context"

	"studybridge/internal/utils"
	"studybridge/pkg/types"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentTableName = schemaName + ".student_documents"

var documentTableColumns = utils.StructTagValues(types.StudentDocument{})

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// DocumentByID retrieves a single document by ID
func (r *DocumentRepository) DocumentByID(ctx context.Context, id string) (*types.StudentDocument, error) {
	query, args, _ := psql().
		Select(documentTableColumns...).
		From(documentTableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	var doc types.StudentDocument
	err := pgxscan.Get(ctx, r.pool, &doc, query, args...)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DocumentsByStudentID retrieves all documents a student has uploaded
func (r *DocumentRepository) DocumentsByStudentID(ctx context.Context, studentID string) ([]types.StudentDocument, error) {
	query, args, _ := psql().
		Select(documentTableColumns...).
		From(documentTableName).
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("uploaded_at DESC").
		ToSql()

	var docs []types.StudentDocument
	err := pgxscan.Select(ctx, r.pool, &docs, query, args...)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// CategoriesByStudentID returns the distinct document categories a student
// has satisfied, the input to the required-document recommendations.
func (r *DocumentRepository) CategoriesByStudentID(ctx context.Context, studentID string) ([]string, error) {
	query, args, _ := psql().
		Select("DISTINCT category").
		From(documentTableName).
		Where(squirrel.Eq{"student_id": studentID}).
		ToSql()

	var categories []string
	err := pgxscan.Select(ctx, r.pool, &categories, query, args...)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateDocument inserts a new document record
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *types.StudentDocument) error {
	query, args, _ := psql().
		Insert(documentTableName).
		SetMap(utils.StructToMap(doc)).
		ToSql()

	_, err := r.pool.Exec(ctx, query, args...)
	return utils.WrapError(err, "insert document")
}

// DeleteDocument removes a document record
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	query, args, _ := psql().
		Delete(documentTableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	_, err := r.pool.Exec(ctx, query, args...)
	return utils.WrapError(err, "delete document")
}
