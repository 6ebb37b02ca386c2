package handlers

import (
	"context"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/middleware"
	"github.com/sintudecorators/contact-backend/types"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestRouter mounts the error handler the way the real router does.
func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(&config.ServerConfig{Environment: config.EnvDevelopment}))
	return r
}

type MockSubmissionStore struct {
	mock.Mock
}

func (m *MockSubmissionStore) Insert(ctx context.Context, sub *types.Submission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubmissionStore) List(ctx context.Context) ([]types.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Submission), args.Error(1)
}

func (m *MockSubmissionStore) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(sub *types.Submission) bool {
	args := m.Called(sub)
	return args.Bool(0)
}

type MockLoginService struct {
	mock.Mock
}

func (m *MockLoginService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	args := m.Called(ctx)
	return args.Get(0).(types.HealthCheck)
}
