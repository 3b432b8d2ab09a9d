package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/constants"
	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

type ExtractJobRepository interface {
	Start(ctx context.Context, sourcePath string) (*entity.ExtractJob, error)
	FinishText(ctx context.Context, jobID uuid.UUID, method string, pages int) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, documentID uuid.UUID, students, subjects int) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, sourcePath string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		StartedAt:  time.Now().UTC(),
		Status:     string(constants.JobStatusRunning),
	}
	query, args := r.db.builder().Insert("extract_jobs").
		Columns("id", "source_path", "status", "started_at").
		Values(job.ID.String(), job.SourcePath, job.Status, job.StartedAt.UnixNano()).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("extract_job start failed", "source_path", sourcePath, "err", err)
		return nil, err
	}
	r.log.Info("extract_job started", "job_id", job.ID, "source_path", sourcePath)
	return job, nil
}

func (r *extractJobRepo) FinishText(ctx context.Context, jobID uuid.UUID, method string, pages int) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusTextOK)).
			Set("method", method).
			Set("pages", pages)
	})
	if err != nil {
		r.log.Error("extract_job text stage failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Debug("extract_job text ok", "job_id", jobID, "method", method, "pages", pages)
	return nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, documentID uuid.UUID, students, subjects int) error {
	var doc any
	if documentID != uuid.Nil {
		doc = documentID.String()
	}
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusExtracted)).
			Set("document_id", doc).
			Set("students", students).
			Set("subjects", subjects).
			Set("finished_at", time.Now().UTC().UnixNano())
	})
	if err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (EXTRACTED)", "job_id", jobID, "students", students, "subjects", subjects)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusFailed)).
			Set("error_message", message).
			Set("finished_at", time.Now().UTC().UnixNano())
	})
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	var (
		job           entity.ExtractJob
		id            string
		docID, errMsg sql.NullString
		started       int64
		finished      sql.NullInt64
	)
	query, args := r.db.builder().
		Select("id", "source_path", "document_id", "status", "error_message", "method",
			"pages", "students", "subjects", "started_at", "finished_at").
		From(entsql.Table("extract_jobs")).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	err := r.db.SQL.QueryRowContext(ctx, query, args...).
		Scan(&id, &job.SourcePath, &docID, &job.Status, &errMsg, &job.Method, &job.Pages,
			&job.Students, &job.Subjects, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeStorage, "extract job not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if docID.Valid {
		d, err := uuid.Parse(docID.String)
		if err != nil {
			return nil, err
		}
		job.DocumentID = &d
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	job.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		job.FinishedAt = &t
	}
	return &job, nil
}

func (r *extractJobRepo) update(ctx context.Context, jobID uuid.UUID, set func(*entsql.UpdateBuilder)) error {
	u := r.db.builder().Update("extract_jobs")
	set(u)
	query, args := u.Where(entsql.EQ("id", jobID.String())).Query()
	_, err := r.db.SQL.ExecContext(ctx, query, args...)
	return err
}
