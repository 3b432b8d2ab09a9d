package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

// Store archives extraction results.
type Store interface {
	// SaveResult archives res under doc. When a document with the same
	// SHA-256 exists its id is returned with deduped == true.
	SaveResult(ctx context.Context, doc entity.Document, res entity.ExtractionResult) (id uuid.UUID, deduped bool, err error)
	GetResult(ctx context.Context, id uuid.UUID) (*entity.Document, entity.ExtractionResult, error)
	ListDocuments(ctx context.Context) ([]entity.Document, error)
	ListStudents(ctx context.Context, documentID uuid.UUID) ([]entity.StudentRow, error)
	FindByRegNo(ctx context.Context, regNo string) ([]entity.StudentRow, error)
	// FindBySHA256 looks up an archived document by the hash of its source bytes.
	FindBySHA256(ctx context.Context, sum string) (uuid.UUID, bool, error)
	Close()
}

type resultStore struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewResultStore(db *DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &resultStore{db: db, logger: logger, now: time.Now}
}

func (r *resultStore) Close() { r.db.Close() }

func (r *resultStore) findByHash(ctx context.Context, sum string) (uuid.UUID, error) {
	var id string
	query, args := r.db.builder().Select("id").
		From(entsql.Table("documents")).
		Where(entsql.EQ("sha256", sum)).
		Query()
	if err := r.db.SQL.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(id)
}

func (r *resultStore) FindBySHA256(ctx context.Context, sum string) (uuid.UUID, bool, error) {
	id, err := r.findByHash(ctx, sum)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, r.storageErr("find document", err)
	}
	return id, true, nil
}

func (r *resultStore) SaveResult(ctx context.Context, doc entity.Document, res entity.ExtractionResult) (uuid.UUID, bool, error) {
	if doc.SHA256 == "" {
		return uuid.Nil, false, common.NewAppError(common.CodeInput, "document hash is required", common.ErrInvalidInput)
	}
	if id, err := r.findByHash(ctx, doc.SHA256); err == nil {
		r.logger.Info("archive.dedup", "document_id", id, "sha256", doc.SHA256)
		return id, true, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, r.storageErr("lookup by hash", err)
	}

	body, err := json.Marshal(res)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("marshal result: %w", err)
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = r.now().UTC()
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, false, r.storageErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := r.db.builder().Insert("documents").
		Columns(archiveColumns...).
		Values(doc.ID.String(), doc.SourceName, doc.SHA256, res.Institute, res.Programme, res.ResultDate,
			res.ExaminationInfo, len(res.Students), doc.CreatedAt.UnixNano(), string(body)).
		Query()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		// lost a race against the same upload
		_ = tx.Rollback()
		if id, ferr := r.findByHash(ctx, doc.SHA256); ferr == nil {
			return id, true, nil
		}
		return uuid.Nil, false, r.storageErr("insert document", err)
	}

	if len(res.Students) > 0 {
		ins := r.db.builder().Insert("students").Columns(studentColumns...)
		for i := range res.Students {
			st := &res.Students[i]
			ins.Values(doc.ID.String(), i, st.RegNo, st.Name, st.FinalResult, len(st.Subjects()))
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return uuid.Nil, false, r.storageErr("insert students", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, false, r.storageErr("commit", err)
	}

	r.logger.Info("archive.saved",
		"document_id", doc.ID,
		"source", doc.SourceName,
		"students", len(res.Students),
	)
	return doc.ID, false, nil
}

var (
	documentColumns = []string{"id", "source_name", "sha256", "institute", "programme",
		"result_date", "examination_info", "student_count", "created_at"}
	archiveColumns = append(documentColumns[:len(documentColumns):len(documentColumns)], "result_json")
	studentColumns = []string{"document_id", "position", "reg_no", "name", "final_result", "subject_count"}
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, extra ...any) (*entity.Document, error) {
	var (
		d       entity.Document
		id      string
		created int64
	)
	dest := append([]any{&id, &d.SourceName, &d.SHA256, &d.Institute, &d.Programme, &d.ResultDate,
		&d.ExaminationInfo, &d.StudentCount, &created}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	d.ID = parsed
	d.CreatedAt = time.Unix(0, created).UTC()
	return &d, nil
}

func (r *resultStore) GetResult(ctx context.Context, id uuid.UUID) (*entity.Document, entity.ExtractionResult, error) {
	var body string
	query, args := r.db.builder().
		Select(archiveColumns...).
		From(entsql.Table("documents")).
		Where(entsql.EQ("id", id.String())).
		Query()
	doc, err := scanDocument(r.db.SQL.QueryRowContext(ctx, query, args...), &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ExtractionResult{}, common.NewAppError(common.CodeStorage, "document not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, entity.ExtractionResult{}, r.storageErr("get document", err)
	}

	var res entity.ExtractionResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, entity.ExtractionResult{}, fmt.Errorf("decode archived result %s: %w", id, err)
	}
	return doc, res, nil
}

func (r *resultStore) ListDocuments(ctx context.Context) ([]entity.Document, error) {
	query, args := r.db.builder().Select(documentColumns...).
		From(entsql.Table("documents")).
		OrderBy(entsql.Desc("created_at"), "id").
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.storageErr("list documents", err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, r.storageErr("scan document", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *resultStore) ListStudents(ctx context.Context, documentID uuid.UUID) ([]entity.StudentRow, error) {
	return r.queryStudents(ctx, entsql.EQ("document_id", documentID.String()), "position")
}

func (r *resultStore) FindByRegNo(ctx context.Context, regNo string) ([]entity.StudentRow, error) {
	return r.queryStudents(ctx, entsql.EQ("reg_no", regNo), "document_id", "position")
}

func (r *resultStore) queryStudents(ctx context.Context, where *entsql.Predicate, orderBy ...string) ([]entity.StudentRow, error) {
	query, args := r.db.builder().Select(studentColumns...).
		From(entsql.Table("students")).
		Where(where).
		OrderBy(orderBy...).
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.storageErr("list students", err)
	}
	defer rows.Close()

	var out []entity.StudentRow
	for rows.Next() {
		var (
			s     entity.StudentRow
			docID string
		)
		if err := rows.Scan(&docID, &s.Position, &s.RegNo, &s.Name, &s.FinalResult, &s.SubjectCount); err != nil {
			return nil, r.storageErr("scan student", err)
		}
		if s.DocumentID, err = uuid.Parse(docID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *resultStore) storageErr(op string, err error) error {
	r.logger.Error("archive.failed", "op", op, "error", err)
	return common.NewAppError(common.CodeStorage, op, fmt.Errorf("%w: %w", common.ErrDatabase, err))
}
