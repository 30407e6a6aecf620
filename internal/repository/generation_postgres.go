package repository

import (
	"context"
	"fmt"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GenerationRepository records the outcome of every generated lesson.
type GenerationRepository interface {
	CreateGeneration(ctx context.Context, rec entity.GenerationRecord) (*entity.GenerationRecord, error)
	ListGenerations(ctx context.Context, skip, limit int) ([]*entity.GenerationRecord, error)
}

var _ GenerationRepository = &GenerationPostgres{}

const (
	insertGeneration = `
INSERT INTO generations (id, session_id, lesson_index, topic, status, file_name, degraded, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, session_id, lesson_index, topic, status, file_name, degraded, error, created_at`

	listGenerations = `
SELECT id, session_id, lesson_index, topic, status, file_name, degraded, error, created_at
FROM generations
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
)

// GenerationPostgres implements GenerationRepository using PostgreSQL
type GenerationPostgres struct {
	db *pgxpool.Pool
}

func NewGenerationPostgres(db *pgxpool.Pool) *GenerationPostgres {
	return &GenerationPostgres{db: db}
}

func (r *GenerationPostgres) CreateGeneration(
	ctx context.Context,
	rec entity.GenerationRecord,
) (*entity.GenerationRecord, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("parse generation ID: %w", err)
	}

	row := r.db.QueryRow(ctx, insertGeneration,
		pgtype.UUID{Bytes: id, Valid: true},
		rec.SessionID,
		int32(rec.LessonIndex),
		rec.Topic,
		string(rec.Status),
		rec.FileName,
		rec.Degraded,
		rec.Error,
		pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
	)

	created, err := scanGeneration(row)
	if err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}
	return created, nil
}

func (r *GenerationPostgres) ListGenerations(ctx context.Context, skip, limit int) ([]*entity.GenerationRecord, error) {
	rows, err := r.db.Query(ctx, listGenerations, int32(limit), int32(skip))
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.GenerationRecord, 0, limit)
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}

	return records, nil
}

func scanGeneration(row pgx.Row) (*entity.GenerationRecord, error) {
	var (
		id          pgtype.UUID
		lessonIndex int32
		status      string
		createdAt   pgtype.Timestamptz
		rec         entity.GenerationRecord
	)

	if err := row.Scan(
		&id,
		&rec.SessionID,
		&lessonIndex,
		&rec.Topic,
		&status,
		&rec.FileName,
		&rec.Degraded,
		&rec.Error,
		&createdAt,
	); err != nil {
		return nil, err
	}

	rec.ID = uuid.UUID(id.Bytes).String()
	rec.LessonIndex = int(lessonIndex)
	rec.Status = entity.GenerationStatus(status)
	rec.CreatedAt = createdAt.Time
	return &rec, nil
}
