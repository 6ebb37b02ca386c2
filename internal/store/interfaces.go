package store

import (
	"context"

	"github.com/sintudecorators/contact-backend/types"
)

// SubmissionStore persists contact form submissions.
type SubmissionStore interface {
	// Insert stores sub and fills in its ID and CreatedAt.
	Insert(ctx context.Context, sub *types.Submission) error
	// List returns every submission, newest first.
	List(ctx context.Context) ([]types.Submission, error)
	// Delete removes the submission with id. It reports false when no row
	// matched.
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
	KeepAlive(ctx context.Context) error
	GuestCountColumnType(ctx context.Context) (string, error)
}
