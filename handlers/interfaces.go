package handlers

import (
	"context"

	"github.com/sintudecorators/contact-backend/types"
)

// SubmissionWriter stores accepted contact submissions.
type SubmissionWriter interface {
	Insert(ctx context.Context, sub *types.Submission) error
}

// SubmissionAdmin is the store surface behind the admin dashboard.
type SubmissionAdmin interface {
	List(ctx context.Context) ([]types.Submission, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ConfirmationDispatcher queues the confirmation email for a stored
// submission without blocking the request.
type ConfirmationDispatcher interface {
	Dispatch(sub *types.Submission) bool
}

// AdminLoginService exchanges admin credentials for a token.
type AdminLoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// HealthChecker backs the health endpoints.
type HealthChecker interface {
	Ping(ctx context.Context) error
	CheckHealth(ctx context.Context) types.HealthCheck
}
