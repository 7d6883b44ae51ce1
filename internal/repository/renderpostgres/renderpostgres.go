// Package renderpostgres keeps render-jobs in PostgreSQL
package renderpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

func (p PostgresRepo) Create(ctx context.Context, j *model.RenderJob) error {
	query := `INSERT INTO renders (render_uid, recipient, source_keys, photo_key, result_keys, images, with_photo, status, err_msg, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	return p.DB.QueryRowContext(ctx, query,
		j.UID,
		j.Recipient,
		j.SourceKeys,
		j.PhotoKey,
		j.ResultKeys,
		j.Images,
		j.WithPhoto,
		j.Status,
		j.ErrMsg,
		j.CreatedAt,
		j.CreatedAt).Err()
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	query := `SELECT render_uid, recipient, source_keys, photo_key, result_keys, images, with_photo, status, err_msg, created_at, updated_at
	FROM renders
	WHERE render_uid = $1`
	var job model.RenderJob

	err := p.DB.QueryRowContext(ctx, query, id).Scan(&job.UID,
		&job.Recipient,
		&job.SourceKeys,
		&job.PhotoKey,
		&job.ResultKeys,
		&job.Images,
		&job.WithPhoto,
		&job.Status,
		&job.ErrMsg,
		&job.CreatedAt,
		&job.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrJobNotFound
		default:
			return nil, err // 500
		}
	}
	return &job, nil
}

// GetList - sort/order приходят уже нормализованными из сервиса
func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.RenderJob, error) {
	query := fmt.Sprintf(`SELECT render_uid, recipient, images, with_photo, status, err_msg, created_at, updated_at
	FROM renders
	ORDER BY %s %s
	LIMIT $1
	OFFSET $2`, req.Sort, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	jobs := make([]model.RenderJob, 0, req.Limit)
	for rows.Next() {
		var job model.RenderJob
		if err := rows.Scan(&job.UID,
			&job.Recipient,
			&job.Images,
			&job.WithPhoto,
			&job.Status,
			&job.ErrMsg,
			&job.CreatedAt,
			&job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return jobs, nil
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM renders
	WHERE render_uid = $1`

	res, err := p.DB.Master.ExecContext(ctx, query, id)
	return affectedOne(res, err)
}

func (p PostgresRepo) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	query := `UPDATE renders SET status = $1, updated_at = now() WHERE render_uid = $2`

	res, err := p.DB.Master.ExecContext(ctx, query, newStat, id)
	return affectedOne(res, err)
}

func (p PostgresRepo) SaveResult(ctx context.Context, j *model.RenderJob) error {
	query := `UPDATE renders SET status = $1, result_keys = $2, err_msg = $3, updated_at = $4 WHERE render_uid = $5`

	res, err := p.DB.Master.ExecContext(ctx, query, j.Status, j.ResultKeys, j.ErrMsg, j.UpdatedAt, j.UID)
	return affectedOne(res, err)
}

// FetchOrphans - задачи, зависшие в created/in_progress дольше model.OrphanAfter
func (p PostgresRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT render_uid
	FROM renders
	WHERE status IN ($1, $2)
	AND updated_at < now() - make_interval(secs => $3)
	LIMIT $4`

	rows, err := p.DB.QueryContext(ctx, query, model.StatusCreated, model.StatusInProgress, model.OrphanAfter.Seconds(), limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	orphans := make([]string, 0, limit)
	for rows.Next() {
		uid := ""
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		orphans = append(orphans, uid)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return orphans, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err // 500
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrJobNotFound // 404
	}
	return nil
}
