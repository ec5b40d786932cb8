package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/rs/zerolog"
)

// Mailer sends ticket confirmation emails over plain SMTP.
type Mailer struct {
	host     string
	port     string
	from     string
	password string
	log      *zerolog.Logger
}

func NewMailer(host, port, from, password string, log *zerolog.Logger) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		log:      log,
	}
}

// SendTicket mails the registration confirmation with the ticket QR code
// attached inline as a PNG.
func (m *Mailer) SendTicket(recipient, eventName, ticketID string, start, end *time.Time, qrPNG []byte) error {
	subject := fmt.Sprintf("Your ticket for %s", eventName)

	var when string
	if start != nil && end != nil {
		when = fmt.Sprintf("The event runs from %s to %s.\n",
			start.Format("Mon, 02 Jan 2006 15:04"), end.Format("Mon, 02 Jan 2006 15:04"))
	} else if start != nil {
		when = fmt.Sprintf("The event starts on %s.\n", start.Format("Mon, 02 Jan 2006 15:04"))
	}

	text := fmt.Sprintf(
		"Hello!\n\nYour registration for %s is confirmed.\n%s\nYour ticket ID is %s.\nShow the attached QR code at the entrance.\n",
		eventName, when, ticketID,
	)

	msg, err := buildMessage(m.from, recipient, subject, text, qrPNG)
	if err != nil {
		return fmt.Errorf("build email: %w", err)
	}

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, msg); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("ticket email sent to %s (ticket %s)", recipient, ticketID)
	return nil
}

func buildMessage(from, to, subject, text string, qrPNG []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(text)); err != nil {
		return nil, err
	}

	if len(qrPNG) > 0 {
		qrPart, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"image/png"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {`attachment; filename="ticket.png"`},
		})
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(qrPNG)
		if _, err := qrPart.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
