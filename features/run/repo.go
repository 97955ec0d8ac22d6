package run

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, run *Run) error {
	query := `INSERT INTO ingest_runs (kind, collection, status) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, run.Kind, run.Collection, run.Status).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Run, error) {
	query := `SELECT id, kind, collection, status, files_ingested, files_skipped, files_failed, documents, error, created_at, updated_at FROM ingest_runs ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Kind, &run.Collection, &run.Status,
			&run.FilesIngested, &run.FilesSkipped, &run.FilesFailed, &run.Documents,
			&run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	query := `SELECT id, kind, collection, status, files_ingested, files_skipped, files_failed, documents, error, created_at, updated_at FROM ingest_runs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&run.ID, &run.Kind, &run.Collection, &run.Status,
		&run.FilesIngested, &run.FilesSkipped, &run.FilesFailed, &run.Documents,
		&run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *PostgresRepo) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE ingest_runs SET status = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, StatusRunning)
	return err
}

func (r *PostgresRepo) MarkCompleted(ctx context.Context, id string, filesIngested, filesSkipped, filesFailed, documents int) error {
	query := `UPDATE ingest_runs SET status = $2, files_ingested = $3, files_skipped = $4, files_failed = $5, documents = $6, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, StatusCompleted, filesIngested, filesSkipped, filesFailed, documents)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id string, cause string) error {
	query := `UPDATE ingest_runs SET status = $2, error = $3, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, StatusFailed, cause)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingest_runs`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
