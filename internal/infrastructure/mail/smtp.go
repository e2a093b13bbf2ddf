package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/krono/backend/internal/config"
)

// SMTPSender delivers export emails over plain SMTP with a MIME attachment.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string, attachment []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(to, subject, body, attachment, filename)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return err
	}

	s.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *SMTPSender) buildMessage(to, subject, body string, attachment []byte, filename string) []byte {
	const boundary = "krono-mixed-boundary"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	if len(attachment) > 0 {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: text/csv\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

		encoded := base64.StdEncoding.EncodeToString(attachment)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
