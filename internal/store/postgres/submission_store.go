package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sintudecorators/contact-backend/internal/store"
	"github.com/sintudecorators/contact-backend/types"
)

// DBTX is the subset of *pgxpool.Pool the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// SubmissionStore implements store.SubmissionStore on PostgreSQL.
type SubmissionStore struct {
	db DBTX
}

var _ store.SubmissionStore = (*SubmissionStore)(nil)

func NewSubmissionStore(db DBTX) *SubmissionStore {
	return &SubmissionStore{db: db}
}

const insertSubmissionSQL = `
	INSERT INTO contact_submissions
		(full_name, email, phone, event_type, event_date, guest_count, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at`

func (s *SubmissionStore) Insert(ctx context.Context, sub *types.Submission) error {
	err := s.db.QueryRow(ctx, insertSubmissionSQL,
		sub.FullName,
		sub.Email,
		sub.Phone,
		string(sub.EventType),
		sub.EventDate,
		sub.GuestCount,
		sub.Message,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

const listSubmissionsSQL = `
	SELECT id, full_name, email, phone, event_type, event_date, guest_count, message, created_at
	FROM contact_submissions
	ORDER BY created_at DESC`

func (s *SubmissionStore) List(ctx context.Context) ([]types.Submission, error) {
	rows, err := s.db.Query(ctx, listSubmissionsSQL)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]types.Submission, 0)
	for rows.Next() {
		var (
			sub       types.Submission
			eventType string
		)
		if err := rows.Scan(
			&sub.ID,
			&sub.FullName,
			&sub.Email,
			&sub.Phone,
			&eventType,
			&sub.EventDate,
			&sub.GuestCount,
			&sub.Message,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.EventType = types.EventType(eventType)
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return submissions, nil
}

const deleteSubmissionSQL = `DELETE FROM contact_submissions WHERE id = $1 RETURNING id`

func (s *SubmissionStore) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted int64
	err := s.db.QueryRow(ctx, deleteSubmissionSQL, id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete submission: %w", err)
	}
	return true, nil
}

func (s *SubmissionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const keepAliveSQL = `/* keep-alive */ SELECT 1`

func (s *SubmissionStore) KeepAlive(ctx context.Context) error {
	_, err := s.db.Exec(ctx, keepAliveSQL)
	return err
}

const guestCountTypeSQL = `
	SELECT data_type
	FROM information_schema.columns
	WHERE table_name = 'contact_submissions' AND column_name = 'guest_count'`

// GuestCountColumnType returns the declared type of guest_count, or "" when
// the table does not exist yet.
func (s *SubmissionStore) GuestCountColumnType(ctx context.Context) (string, error) {
	var dataType string
	err := s.db.QueryRow(ctx, guestCountTypeSQL).Scan(&dataType)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("inspect guest_count column: %w", err)
	}
	return dataType, nil
}
