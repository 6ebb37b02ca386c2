package services

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/smtp"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/types"
)

// NewMailer builds the transport selected by cfg.Transport.
func NewMailer(ctx context.Context, cfg *config.EmailConfig) (types.Mailer, error) {
	switch cfg.Transport {
	case config.MailTransportSMTP:
		return NewSMTPMailer(cfg), nil
	case config.MailTransportResend:
		return NewResendMailer(cfg), nil
	case config.MailTransportSES:
		return NewSESMailer(ctx, cfg)
	case config.MailTransportLog, "":
		return NewLogMailer(), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

func fromHeader(cfg *config.EmailConfig) string {
	if cfg.FromName == "" {
		return cfg.FromAddress
	}
	return mime.QEncoding.Encode("utf-8", cfg.FromName) + " <" + cfg.FromAddress + ">"
}

// SMTPMailer relays through an authenticated SMTP submission server such as
// Brevo. STARTTLS is negotiated when the server offers it.
type SMTPMailer struct {
	cfg  *config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg *config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) Name() string { return config.MailTransportSMTP }

func (m *SMTPMailer) Send(ctx context.Context, msg types.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := buildMIMEMessage(fromHeader(m.cfg), msg)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	addr := m.cfg.SMTPHost + ":" + strconv.Itoa(m.cfg.SMTPPort)

	// net/smtp has no context support; run it aside so cancellation returns.
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.send(addr, auth, m.cfg.FromAddress, []string{msg.To}, body)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildMIMEMessage renders a multipart/alternative message with a plain
// text part (when present) and an HTML part, both quoted-printable.
func buildMIMEMessage(from string, msg types.EmailMessage) ([]byte, error) {
	boundary := "sintu-" + uuid.NewString()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	writePart := func(contentType, content string) error {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=UTF-8\r\n", contentType)
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&buf)
		if _, err := qp.Write([]byte(content)); err != nil {
			return err
		}
		if err := qp.Close(); err != nil {
			return err
		}
		buf.WriteString("\r\n")
		return nil
	}

	if msg.Text != "" {
		if err := writePart("text/plain", msg.Text); err != nil {
			return nil, fmt.Errorf("failed to encode text part: %w", err)
		}
	}
	if err := writePart("text/html", msg.HTML); err != nil {
		return nil, fmt.Errorf("failed to encode html part: %w", err)
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

// resendEmails is the part of the Resend SDK the mailer uses.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	cfg    *config.EmailConfig
	emails resendEmails
}

func NewResendMailer(cfg *config.EmailConfig) *ResendMailer {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &ResendMailer{cfg: cfg, emails: client.Emails}
}

func (m *ResendMailer) Name() string { return config.MailTransportResend }

func (m *ResendMailer) Send(ctx context.Context, msg types.EmailMessage) error {
	params := &resend.SendEmailRequest{
		From:    fromHeader(m.cfg),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	resp, err := m.emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	logger.GetLogger().Debugw("Resend accepted email", "id", resp.Id)
	return nil
}

// sesAPI is the part of the SES v2 client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends through Amazon SES v2. Static keys are used when
// configured, otherwise the default AWS credential chain.
type SESMailer struct {
	cfg    *config.EmailConfig
	client sesAPI
}

func NewSESMailer(ctx context.Context, cfg *config.EmailConfig) (*SESMailer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SESMailer{cfg: cfg, client: sesv2.NewFromConfig(awsCfg)}, nil
}

func (m *SESMailer) Name() string { return config.MailTransportSES }

func (m *SESMailer) Send(ctx context.Context, msg types.EmailMessage) error {
	body := &sestypes.Body{
		Html: &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
	}
	if msg.Text != "" {
		body.Text = &sestypes.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromHeader(m.cfg)),
		Destination:      &sestypes.Destination{ToAddresses: []string{msg.To}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	logger.GetLogger().Debugw("SES accepted email", "message_id", aws.ToString(out.MessageId))
	return nil
}

// LogMailer only logs what would have been sent. Used in development and
// whenever no transport is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) Name() string { return config.MailTransportLog }

func (m *LogMailer) Send(_ context.Context, msg types.EmailMessage) error {
	logger.GetLogger().Infow("Email not sent, log transport active",
		"to", logger.MaskEmail(msg.To),
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML))
	return nil
}
