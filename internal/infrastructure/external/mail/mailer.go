// Package mail delivers account invitations over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"go.uber.org/zap"
)

const (
	invitationSubject = "Welcome to the Expense Management System!"
	defaultFrom       = "noreply@example.com"
	defaultFromName   = "Expense Management System"
)

var invitationHTML = template.Must(template.New("invitation").Parse(`<h2>Welcome!</h2>
<p>Your account has been created for the Expense Management System.</p>
<p>You can log in using your email and the following temporary password:</p>
<p><b>{{.}}</b></p>
<p>We recommend changing your password after your first login.</p>`))

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer implements port.Mailer
type SMTPMailer struct {
	cfg    Config
	send   sendFunc
	logger *zap.Logger
}

// NewMailer returns an SMTP mailer, or a log-only mailer when no host is configured
func NewMailer(cfg Config, logger *zap.Logger) port.Mailer {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, invitations will only be logged")
		return &LogMailer{logger: logger}
	}
	return NewSMTPMailer(cfg, logger)
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg Config, logger *zap.Logger) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, logger: logger}
}

// SendInvitation mails the temporary password to recipient
func (m *SMTPMailer) SendInvitation(ctx context.Context, recipient, tempPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildInvitation(m.cfg.From, recipient, tempPassword)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{recipient}, msg); err != nil {
		m.logger.Error("Failed to send invitation", zap.String("to", recipient), zap.Error(err))
		return fmt.Errorf("failed to send invitation: %w", err)
	}

	m.logger.Info("Invitation sent", zap.String("to", recipient))
	return nil
}

// buildInvitation renders a multipart/alternative message with text and html parts
func buildInvitation(from, to, tempPassword string) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(from, "\r\n") {
		return nil, fmt.Errorf("invalid address")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(textPart, "Hello! Your account has been created. You can log in with your email and this temporary password: %s\r\n", tempPassword)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
	if err != nil {
		return nil, err
	}
	if err := invitationHTML.Execute(htmlPart, tempPassword); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %q <%s>\r\n", defaultFromName, from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", invitationSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

// LogMailer records invitations without delivering them
type LogMailer struct {
	logger *zap.Logger
}

// SendInvitation logs the recipient. The password is never logged.
func (m *LogMailer) SendInvitation(ctx context.Context, recipient, tempPassword string) error {
	m.logger.Info("Invitation not delivered, SMTP disabled", zap.String("to", recipient))
	return nil
}

var (
	_ port.Mailer = (*SMTPMailer)(nil)
	_ port.Mailer = (*LogMailer)(nil)
)
