package admission

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	apperrors "github.com/sintudecorators/contact-backend/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStage struct {
	name     string
	reject   *Rejection
	calls    *[]string
	finished *[]string
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) Admit(c *gin.Context) *Rejection {
	*s.calls = append(*s.calls, s.name)
	return s.reject
}

func (s *recordingStage) Finish(c *gin.Context) {
	*s.finished = append(*s.finished, s.name)
}

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var calls, finished []string
	p := NewPipeline("test", nil,
		&recordingStage{name: "a", calls: &calls, finished: &finished},
		nil,
		&recordingStage{name: "b", calls: &calls, finished: &finished},
		&recordingStage{name: "c", calls: &calls, finished: &finished},
	)

	handled := false
	w := serve(p, "/t", func(c *gin.Context) {
		handled = true
		c.Status(http.StatusNoContent)
	}, testRequest{target: "/t"})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, handled)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, []string{"c", "b", "a"}, finished)
	assert.Equal(t, []string{"a", "b", "c"}, p.StageNames())
}

func TestPipeline_StopsAtFirstRejection(t *testing.T) {
	var calls, finished []string
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := NewPipeline("test", metrics,
		&recordingStage{name: "a", calls: &calls, finished: &finished},
		&recordingStage{name: "b", calls: &calls, finished: &finished,
			reject: Reject(http.StatusTeapot, "Nope", "Stage b said no.")},
		&recordingStage{name: "c", calls: &calls, finished: &finished},
	)

	handled := false
	w := serve(p, "/t", func(c *gin.Context) { handled = true }, testRequest{target: "/t"})

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.False(t, handled)
	assert.Equal(t, []string{"a", "b"}, calls)
	// Only stages that admitted the request are finished.
	assert.Equal(t, []string{"a"}, finished)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"error": "Nope", "message": "Stage b said no."}, body)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rejections.WithLabelValues("test", "b", "418")))
}

func TestPipeline_Extend(t *testing.T) {
	var calls, finished []string
	base := NewPipeline("base", nil, &recordingStage{name: "a", calls: &calls, finished: &finished})
	extended := base.Extend("extended", &recordingStage{name: "b", calls: &calls, finished: &finished})

	assert.Equal(t, []string{"a"}, base.StageNames())
	assert.Equal(t, []string{"a", "b"}, extended.StageNames())
	assert.Equal(t, "extended", extended.Name())
}

func TestResponseStatus(t *testing.T) {
	tests := []struct {
		name     string
		handler  gin.HandlerFunc
		expected int
	}{
		{
			name:     "written response",
			handler:  func(c *gin.Context) { c.Status(http.StatusCreated) },
			expected: http.StatusCreated,
		},
		{
			name: "pending app error",
			handler: func(c *gin.Context) {
				_ = c.Error(apperrors.AuthenticationFailed("Invalid credentials"))
			},
			expected: http.StatusUnauthorized,
		},
		{
			name: "pending bind error",
			handler: func(c *gin.Context) {
				_ = c.Error(assert.AnError).SetType(gin.ErrorTypeBind)
			},
			expected: http.StatusBadRequest,
		},
		{
			name: "pending plain error",
			handler: func(c *gin.Context) {
				_ = c.Error(assert.AnError)
			},
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			p := NewPipeline("test", nil, &statusRecorder{got: &got})
			serve(p, "/t", tt.handler, testRequest{target: "/t"})
			assert.Equal(t, tt.expected, got)
		})
	}
}

type statusRecorder struct {
	got *int
}

func (s *statusRecorder) Name() string                    { return "recorder" }
func (s *statusRecorder) Admit(c *gin.Context) *Rejection { return nil }
func (s *statusRecorder) Finish(c *gin.Context)           { *s.got = ResponseStatus(c) }

func TestRejectError(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperrors.AppError
		wantStatus int
	}{
		{"forbidden", apperrors.Forbidden("Your IP address has been blocked.", "burst"), http.StatusForbidden},
		{"rate limited", apperrors.RateLimitExceeded("Slow down.", 30), http.StatusTooManyRequests},
		{"payload too large", apperrors.PayloadTooLarge("Request body must not exceed 10KB.", 10240), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := RejectError("Title", tt.err)
			assert.Equal(t, tt.wantStatus, rej.Status)
			assert.Equal(t, gin.H{"error": "Title", "message": tt.err.Message}, rej.Body)
		})
	}
}
