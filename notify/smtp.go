package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender mails the confirmation code directly.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

var confirmTemplate = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Subject}}</h2>
  <p>Hi {{.Username}},</p>
  <p>Your confirmation code is:</p>
  <p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
  <p>The code expires at {{.ExpiresAt}}.</p>
</body>
</html>`))

// NewSMTPSender validates cfg and returns a sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host must not be empty")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address must not be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Subject == "" {
		cfg.Subject = "Please confirm your email"
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// SendOTP implements Notifier.
func (s *SMTPSender) SendOTP(ctx context.Context, n OTPNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.render(n)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.From, []string{n.Email}, msg); err != nil {
		return fmt.Errorf("notify: smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) render(n OTPNotification) ([]byte, error) {
	var body bytes.Buffer
	if err := confirmTemplate.Execute(&body, struct {
		Subject   string
		Username  string
		Code      string
		ExpiresAt string
	}{
		Subject:   s.cfg.Subject,
		Username:  n.Username,
		Code:      n.Code,
		ExpiresAt: n.ExpiresAt.UTC().Format(time.RFC1123),
	}); err != nil {
		return nil, fmt.Errorf("notify: render template: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", s.cfg.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "Date: %s\r\n\r\n", time.Now().Format(time.RFC1123Z))
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
