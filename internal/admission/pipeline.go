// Package admission implements the ordered request checks every API route
// passes before reaching its handler: security headers, body size,
// client reputation, rate limits, the injection pre-filter, the honeypot,
// contact input validation, the randomized delay and the admin token check.
//
// Each check is a Stage that either admits the request or returns a
// Rejection. A Pipeline runs its stages in order and stops at the first
// rejection, so a stage can never both pass a request on and answer it.
package admission

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	apperrors "github.com/sintudecorators/contact-backend/errors"
	"github.com/sintudecorators/contact-backend/logger"
)

// Rejection ends a request with Status and a JSON Body.
type Rejection struct {
	Status int
	Body   gin.H
}

// Reject builds the {error, message} body used by every rejecting stage.
func Reject(status int, title, message string) *Rejection {
	return &Rejection{
		Status: status,
		Body:   gin.H{"error": title, "message": message},
	}
}

// RejectError builds a rejection from an application error. The status
// comes from appErr and its Message becomes the message field.
func RejectError(title string, appErr *apperrors.AppError) *Rejection {
	return Reject(appErr.HTTPStatus, title, appErr.Message)
}

// Stage is one admission check.
type Stage interface {
	Name() string
	// Admit returns nil to let the request continue.
	Admit(c *gin.Context) *Rejection
}

// Finisher is implemented by stages that need to observe the final
// response, e.g. to refund a rate-limit slot for a successful login.
// Finish runs only for stages that admitted the request.
type Finisher interface {
	Finish(c *gin.Context)
}

type stageFunc struct {
	name string
	fn   func(c *gin.Context) *Rejection
}

func (s stageFunc) Name() string                    { return s.name }
func (s stageFunc) Admit(c *gin.Context) *Rejection { return s.fn(c) }

// NewStage adapts a function into a Stage.
func NewStage(name string, fn func(c *gin.Context) *Rejection) Stage {
	return stageFunc{name: name, fn: fn}
}

// Metrics counts rejections per pipeline and stage.
type Metrics struct {
	rejections *prometheus.CounterVec
}

// NewMetrics registers the admission counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admission_rejections_total",
			Help: "Requests rejected by an admission stage",
		}, []string{"pipeline", "stage", "status"}),
	}
	reg.MustRegister(m.rejections)
	return m
}

func (m *Metrics) observe(pipeline, stage string, status int) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(pipeline, stage, strconv.Itoa(status)).Inc()
}

// Pipeline is an immutable ordered list of stages for one route class.
type Pipeline struct {
	name    string
	stages  []Stage
	metrics *Metrics
}

// NewPipeline returns a pipeline running stages in the given order. Nil
// stages are skipped, which lets optional checks be passed inline.
func NewPipeline(name string, metrics *Metrics, stages ...Stage) *Pipeline {
	p := &Pipeline{name: name, metrics: metrics}
	for _, s := range stages {
		if s != nil {
			p.stages = append(p.stages, s)
		}
	}
	return p
}

// Extend returns a new pipeline that runs p's stages followed by stages.
func (p *Pipeline) Extend(name string, stages ...Stage) *Pipeline {
	all := make([]Stage, 0, len(p.stages)+len(stages))
	all = append(all, p.stages...)
	all = append(all, stages...)
	return NewPipeline(name, p.metrics, all...)
}

// Name returns the route class name.
func (p *Pipeline) Name() string {
	return p.name
}

// StageNames lists stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Handler runs the pipeline as gin middleware.
func (p *Pipeline) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var admitted []Finisher
		defer func() {
			for i := len(admitted) - 1; i >= 0; i-- {
				admitted[i].Finish(c)
			}
		}()

		for _, s := range p.stages {
			if rej := s.Admit(c); rej != nil {
				p.metrics.observe(p.name, s.Name(), rej.Status)
				logger.GetLogger().Debugw("Request rejected by admission stage",
					"pipeline", p.name,
					"stage", s.Name(),
					"status", rej.Status,
					"path", c.Request.URL.Path,
					"client_ip", c.ClientIP())
				c.AbortWithStatusJSON(rej.Status, rej.Body)
				return
			}
			if f, ok := s.(Finisher); ok {
				admitted = append(admitted, f)
			}
		}

		c.Next()
	}
}

// ResponseStatus returns the status the client will receive. Errors pushed
// with c.Error are rendered later by the error handler, so they are taken
// into account when nothing has been written yet.
func ResponseStatus(c *gin.Context) int {
	if c.Writer.Written() || len(c.Errors) == 0 {
		return c.Writer.Status()
	}
	if appErr, ok := c.Errors.Last().Err.(*apperrors.AppError); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	if c.Errors.Last().Type == gin.ErrorTypeBind {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
