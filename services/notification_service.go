package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/types"
)

type notificationMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
	droppedJobs prometheus.Counter
}

// NotificationService sends the confirmation email for a stored
// submission. Delivery is best effort: failures are logged and counted,
// never reported to the submitter.
type NotificationService struct {
	mailer  types.Mailer
	pool    *WorkerPool
	metrics *notificationMetrics
	html    *template.Template
	text    *texttemplate.Template
}

func NewNotificationService(mailer types.Mailer, pool *WorkerPool) *NotificationService {
	return NewNotificationServiceWithRegistry(mailer, pool, prometheus.DefaultRegisterer)
}

func NewNotificationServiceWithRegistry(mailer types.Mailer, pool *WorkerPool, reg prometheus.Registerer) *NotificationService {
	metrics := &notificationMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "confirmation_email_send_duration_seconds",
			Help:    "Time taken to send confirmation emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confirmation_email_errors_total",
			Help: "Total number of confirmation email failures",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confirmation_emails_sent_total",
			Help: "Total number of confirmation emails sent",
		}),
		droppedJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confirmation_emails_dropped_total",
			Help: "Confirmation emails not queued because the worker pool was full or stopped",
		}),
	}
	reg.MustRegister(metrics.sendLatency, metrics.errorCount, metrics.sentCount, metrics.droppedJobs)

	return &NotificationService{
		mailer:  mailer,
		pool:    pool,
		metrics: metrics,
		html:    template.Must(template.New("confirmation").Parse(confirmationHTMLTemplate)),
		text:    texttemplate.Must(texttemplate.New("confirmation").Parse(confirmationTextTemplate)),
	}
}

type confirmationData struct {
	FullName   string
	Email      string
	Phone      string
	EventType  string
	EventDate  string
	GuestCount string
	Message    string
}

func newConfirmationData(sub *types.Submission) confirmationData {
	data := confirmationData{
		FullName:  sub.FullName,
		Email:     sub.Email,
		EventType: sub.EventType.Title(),
	}
	if sub.Phone != nil {
		data.Phone = *sub.Phone
	}
	if sub.EventDate != nil {
		data.EventDate = sub.EventDate.Format("Monday, 2 January 2006")
	}
	if sub.GuestCount != nil {
		data.GuestCount = *sub.GuestCount
	}
	if sub.Message != nil {
		data.Message = *sub.Message
	}
	return data
}

// ConfirmationSubject is the subject line for a confirmation of eventType.
func ConfirmationSubject(eventType types.EventType) string {
	return fmt.Sprintf("Thank You for Contacting Sintu Decorators - %s Event", eventType.Title())
}

// BuildConfirmation renders the confirmation email for sub.
func (s *NotificationService) BuildConfirmation(sub *types.Submission) (types.EmailMessage, error) {
	data := newConfirmationData(sub)

	var html bytes.Buffer
	if err := s.html.Execute(&html, data); err != nil {
		return types.EmailMessage{}, fmt.Errorf("failed to execute html template: %w", err)
	}
	var text bytes.Buffer
	if err := s.text.Execute(&text, data); err != nil {
		return types.EmailMessage{}, fmt.Errorf("failed to execute text template: %w", err)
	}

	return types.EmailMessage{
		To:      sub.Email,
		Subject: ConfirmationSubject(sub.EventType),
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}

// Notify renders and sends the confirmation synchronously.
func (s *NotificationService) Notify(ctx context.Context, sub *types.Submission) error {
	start := time.Now()
	log := logger.GetLogger()
	defer func() {
		s.metrics.sendLatency.Observe(time.Since(start).Seconds())
	}()

	msg, err := s.BuildConfirmation(sub)
	if err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to render confirmation email", "error", err, "submission_id", sub.ID)
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to send confirmation email",
			"error", err,
			"transport", s.mailer.Name(),
			"submission_id", sub.ID,
			"to", logger.MaskEmail(sub.Email))
		return fmt.Errorf("confirmation email failed: %w", err)
	}

	s.metrics.sentCount.Inc()
	log.Infow("Confirmation email sent",
		"transport", s.mailer.Name(),
		"submission_id", sub.ID,
		"to", logger.MaskEmail(sub.Email))
	return nil
}

// Dispatch queues Notify on the worker pool and returns immediately. It
// reports whether the job was queued.
func (s *NotificationService) Dispatch(sub *types.Submission) bool {
	snapshot := *sub
	queued := s.pool.Submit(Job{
		Name: fmt.Sprintf("confirmation-email-%d", sub.ID),
		Execute: func(ctx context.Context) error {
			return s.Notify(ctx, &snapshot)
		},
	})
	if !queued {
		s.metrics.droppedJobs.Inc()
		logger.GetLogger().Warnw("Confirmation email not queued",
			"submission_id", sub.ID,
			"to", logger.MaskEmail(sub.Email))
	}
	return queued
}

// MailerName reports the active transport.
func (s *NotificationService) MailerName() string {
	return s.mailer.Name()
}

const confirmationTextTemplate = `
Dear {{.FullName}},

Thank you for reaching out to Sintu Decorators. We have received your inquiry and our team will contact you within 24 hours.

Event type: {{.EventType}}
{{- if .EventDate}}
Event date: {{.EventDate}}
{{- end}}
{{- if .GuestCount}}
Guests: {{.GuestCount}}
{{- end}}
{{- if .Phone}}
Phone: {{.Phone}}
{{- end}}
{{- if .Message}}

Your message:
"{{.Message}}"
{{- end}}

Need immediate assistance? Call us at 8969207777.

Sintu Decorators
Near Shiv Mandir Mungroura, Jamalpur 811214
District Munger, Bihar, India
`

const confirmationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Thank You - Sintu Decorators</title>
</head>
<body style="margin: 0; padding: 0; background-color: #000000; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;">
  <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="background-color: #000000;">
    <tr>
      <td style="padding: 40px 20px;">
        <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="max-width: 600px; margin: 0 auto; background-color: #1a1a1a; border-radius: 16px; overflow: hidden;">
          <tr>
            <td style="background-color: #eab308; padding: 40px 30px; text-align: center;">
              <h1 style="margin: 0; color: #000000; font-size: 32px; font-weight: 700;">Sintu Decorators</h1>
              <p style="margin: 10px 0 0; color: #1a1a1a; font-size: 14px; text-transform: uppercase; letter-spacing: 2px;">Premium Event Management</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 40px 30px;">
              <h2 style="margin: 0 0 20px; color: #eab308; font-size: 26px;">Thank You for Contacting Us!</h2>
              <p style="margin: 0 0 20px; color: #e5e5e5; font-size: 16px; line-height: 1.6;">Dear <strong style="color: #fbbf24;">{{.FullName}}</strong>,</p>
              <p style="margin: 0 0 30px; color: #d1d1d1; font-size: 15px; line-height: 1.7;">We have received your inquiry and our team will reach out within <strong>24 hours</strong> to discuss your vision.</p>
              <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="background-color: #262626; border-radius: 12px; border: 1px solid #404040;">
                <tr>
                  <td style="padding: 25px;">
                    <h3 style="margin: 0 0 15px; color: #eab308; font-size: 18px;">Your Event Details</h3>
                    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%">
                      <tr>
                        <td style="padding: 8px 0; color: #a3a3a3; font-size: 14px;">Event Type:</td>
                        <td style="padding: 8px 0; color: #fbbf24; font-size: 14px; font-weight: 600; text-align: right;">{{.EventType}}</td>
                      </tr>
                      <tr>
                        <td style="padding: 8px 0; color: #a3a3a3; font-size: 14px;">Email:</td>
                        <td style="padding: 8px 0; color: #fbbf24; font-size: 14px; font-weight: 600; text-align: right;">{{.Email}}</td>
                      </tr>
                      {{- if .Phone}}
                      <tr>
                        <td style="padding: 8px 0; color: #a3a3a3; font-size: 14px;">Phone:</td>
                        <td style="padding: 8px 0; color: #fbbf24; font-size: 14px; font-weight: 600; text-align: right;">{{.Phone}}</td>
                      </tr>
                      {{- end}}
                      {{- if .EventDate}}
                      <tr>
                        <td style="padding: 8px 0; color: #a3a3a3; font-size: 14px;">Event Date:</td>
                        <td style="padding: 8px 0; color: #fbbf24; font-size: 14px; font-weight: 600; text-align: right;">{{.EventDate}}</td>
                      </tr>
                      {{- end}}
                      {{- if .GuestCount}}
                      <tr>
                        <td style="padding: 8px 0; color: #a3a3a3; font-size: 14px;">Guests:</td>
                        <td style="padding: 8px 0; color: #fbbf24; font-size: 14px; font-weight: 600; text-align: right;">{{.GuestCount}}</td>
                      </tr>
                      {{- end}}
                    </table>
                    {{- if .Message}}
                    <div style="margin-top: 20px; padding-top: 20px; border-top: 1px solid #404040;">
                      <p style="margin: 0 0 8px; color: #a3a3a3; font-size: 13px;">Your Message:</p>
                      <p style="margin: 0; color: #e5e5e5; font-size: 14px; line-height: 1.6; font-style: italic; background-color: #1a1a1a; padding: 15px; border-radius: 8px; border-left: 3px solid #eab308;">"{{.Message}}"</p>
                    </div>
                    {{- end}}
                  </td>
                </tr>
              </table>
              <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%" style="margin: 30px 0;">
                <tr>
                  <td align="center">
                    <a href="tel:8969207777" style="display: inline-block; padding: 16px 40px; background-color: #eab308; color: #000000; text-decoration: none; border-radius: 8px; font-weight: 600; font-size: 16px;">Call Us: 8969207777</a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
          <tr>
            <td style="background-color: #000000; padding: 30px; border-top: 2px solid #404040; text-align: center;">
              <p style="margin: 0 0 15px; color: #eab308; font-size: 18px; font-weight: 600;">Sintu Decorators</p>
              <p style="margin: 0; color: #a3a3a3; font-size: 13px; line-height: 1.6;">Near Shiv Mandir Mungroura, Jamalpur 811214<br>District Munger, Bihar, India</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
