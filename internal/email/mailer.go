package email

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single assembled message. The SMTP implementation below
// is swapped for a recorder in tests.
type Sender interface {
	Send(msg *gomail.Message) error
}

type smtpSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender builds a Sender that dials the configured SMTP relay per
// message. Volume is a handful of mails per order, so no connection is kept.
func NewSMTPSender(host string, port int, user, password string) Sender {
	return &smtpSender{dialer: gomail.NewDialer(host, port, user, password)}
}

func (s *smtpSender) Send(msg *gomail.Message) error {
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Mailer assembles and sends plain-text messages from a fixed sender address.
type Mailer struct {
	sender Sender
	from   string
	logger *zap.Logger
}

func NewMailer(sender Sender, from string, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, from: from, logger: logger}
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.Send(msg); err != nil {
		return err
	}
	m.logger.Info("sent email", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *Mailer) sendWithAttachment(to, subject, body, filename string, content []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(filename,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(content))
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
	)

	if err := m.sender.Send(msg); err != nil {
		return err
	}
	m.logger.Info("sent email with attachment",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("filename", filename))
	return nil
}
