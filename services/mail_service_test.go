package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/resend/resend-go/v2"
	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testEmailConfig(transport string) *config.EmailConfig {
	return &config.EmailConfig{
		Transport:    transport,
		FromAddress:  "hello@sintudecorators.com",
		FromName:     "Sintu Decorators",
		SMTPHost:     "smtp-relay.brevo.com",
		SMTPPort:     587,
		SMTPUser:     "user",
		SMTPPassword: "key",
		ResendAPIKey: "re_test",
		AWSRegion:    "ap-south-1",
		AWSAccessKey: "AKIATEST",
		AWSSecretKey: "secret",
	}
}

func testEmailMessage() types.EmailMessage {
	return types.EmailMessage{
		To:      "priya@example.com",
		Subject: "Thank You for Contacting Sintu Decorators - Wedding Event",
		HTML:    "<p>Namaste Priya ✨</p>",
		Text:    "Namaste Priya",
	}
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		transport string
		name      string
		wantErr   bool
	}{
		{transport: config.MailTransportSMTP, name: "smtp"},
		{transport: config.MailTransportResend, name: "resend"},
		{transport: config.MailTransportSES, name: "ses"},
		{transport: config.MailTransportLog, name: "log"},
		{transport: "pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			mailer, err := NewMailer(context.Background(), testEmailConfig(tt.transport))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, mailer.Name())
		})
	}
}

func TestBuildMIMEMessage(t *testing.T) {
	raw, err := buildMIMEMessage(fromHeader(testEmailConfig(config.MailTransportSMTP)), testEmailMessage())
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Thank You for Contacting Sintu Decorators - Wedding Event", subject)
	assert.Equal(t, "priya@example.com", parsed.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])
	var parts []string
	var bodies []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		parts = append(parts, part.Header.Get("Content-Type"))
		bodies = append(bodies, string(body))
	}
	assert.Equal(t, []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"}, parts)
	// multipart.Reader decodes quoted-printable parts transparently.
	assert.Equal(t, "Namaste Priya", bodies[0])
	assert.Equal(t, "<p>Namaste Priya ✨</p>", bodies[1])
}

func TestSMTPMailer_Send(t *testing.T) {
	cfg := testEmailConfig(config.MailTransportSMTP)
	mailer := NewSMTPMailer(cfg)

	var gotAddr, gotFrom string
	var gotTo []string
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, to
		assert.NotNil(t, a)
		assert.Contains(t, string(msg), "MIME-Version: 1.0")
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), testEmailMessage()))
	assert.Equal(t, "smtp-relay.brevo.com:587", gotAddr)
	assert.Equal(t, "hello@sintudecorators.com", gotFrom)
	assert.Equal(t, []string{"priya@example.com"}, gotTo)

	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}
	assert.Error(t, mailer.Send(context.Background(), testEmailMessage()))
}

func TestSMTPMailer_SendCancelled(t *testing.T) {
	mailer := NewSMTPMailer(testEmailConfig(config.MailTransportSMTP))
	block := make(chan struct{})
	defer close(block)
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mailer.Send(ctx, testEmailMessage()), context.Canceled)
}

type mockResendEmails struct {
	mock.Mock
}

func (m *mockResendEmails) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.SendEmailResponse), args.Error(1)
}

func TestResendMailer_Send(t *testing.T) {
	emails := new(mockResendEmails)
	mailer := &ResendMailer{cfg: testEmailConfig(config.MailTransportResend), emails: emails}

	emails.On("SendWithContext", mock.Anything, mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
		return p.From == "Sintu Decorators <hello@sintudecorators.com>" &&
			len(p.To) == 1 && p.To[0] == "priya@example.com" &&
			p.Html == "<p>Namaste Priya ✨</p>"
	})).Return(&resend.SendEmailResponse{Id: "email_123"}, nil).Once()
	require.NoError(t, mailer.Send(context.Background(), testEmailMessage()))

	emails.On("SendWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited")).Once()
	assert.Error(t, mailer.Send(context.Background(), testEmailMessage()))

	emails.AssertExpectations(t)
}

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}

func TestSESMailer_Send(t *testing.T) {
	client := new(mockSES)
	mailer := &SESMailer{cfg: testEmailConfig(config.MailTransportSES), client: client}

	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
		return aws.ToString(in.Content.Simple.Subject.Data) == "Thank You for Contacting Sintu Decorators - Wedding Event" &&
			in.Destination.ToAddresses[0] == "priya@example.com" &&
			in.Content.Simple.Body.Text != nil
	})).Return(&sesv2.SendEmailOutput{MessageId: aws.String("0100-abc")}, nil).Once()
	require.NoError(t, mailer.Send(context.Background(), testEmailMessage()))

	client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("MessageRejected")).Once()
	assert.Error(t, mailer.Send(context.Background(), testEmailMessage()))

	client.AssertExpectations(t)
}

func TestLogMailer_Send(t *testing.T) {
	assert.NoError(t, NewLogMailer().Send(context.Background(), testEmailMessage()))
}
