package local

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/slopmail/slopmail/internal/backend"
	"github.com/slopmail/slopmail/internal/model"
)

// smtpSession delivers messages over SMTP. Port 465 style endpoints use
// implicit TLS; everything else dials plain and upgrades via STARTTLS.
type smtpSession struct {
	host     string
	port     int
	username string
	password string
	tls      bool
}

// send submits a raw message. The recipient list must cover To, Cc,
// and Bcc; Bcc addresses appear only here, never in the headers.
func (s *smtpSession) send(_ context.Context, from string, recipients []string, raw []byte) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients provided")
	}

	addr := s.host + ":" + strconv.Itoa(s.port)

	var c *smtp.Client
	var err error

	if s.tls {
		tlsConfig := &tls.Config{ServerName: s.host}
		conn, err := tls.DialWithDialer(
			&net.Dialer{Timeout: 30 * time.Second}, "tcp", addr, tlsConfig,
		)
		if err != nil {
			return fmt.Errorf("connecting to SMTP %s: %w", addr, err)
		}
		c, err = smtp.NewClient(conn, s.host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("starting SMTP session with %s: %w", addr, err)
		}
	} else {
		c, err = smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("connecting to SMTP %s: %w", addr, err)
		}
		if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			_ = c.Quit()
			return fmt.Errorf("starting TLS with %s: %w", addr, err)
		}
	}
	defer c.Quit()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := c.Auth(auth); err != nil {
		return &backend.AuthError{
			Server:  addr,
			Message: fmt.Sprintf("authentication failed for %s: %v", s.username, err),
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM %s: %w", from, err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("opening DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing message data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing DATA: %w", err)
	}

	return c.Quit()
}

// buildMessage renders an outgoing message to wire format and returns
// its generated Message-ID alongside the raw bytes.
func buildMessage(compose model.ComposeEmail, from model.EmailAddress) (string, []byte, error) {
	messageID := fmt.Sprintf("%s@%s", uuid.New().String(), messageIDHost(from.Address))

	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(compose.Subject)
	h.SetMessageID(messageID)
	h.SetAddressList("From", []*mail.Address{{Name: from.Name, Address: from.Address}})
	h.SetAddressList("To", toMailAddresses(compose.To))
	if len(compose.Cc) > 0 {
		h.SetAddressList("Cc", toMailAddresses(compose.Cc))
	}
	if compose.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{strings.Trim(compose.InReplyTo, "<>")})
	}
	if len(compose.References) > 0 {
		refs := make([]string, len(compose.References))
		for i, r := range compose.References {
			refs[i] = strings.Trim(r, "<>")
		}
		h.SetMsgIDList("References", refs)
	}

	var buf bytes.Buffer

	if compose.BodyHTML != "" {
		mw, err := mail.CreateWriter(&buf, h)
		if err != nil {
			return "", nil, fmt.Errorf("creating message writer: %w", err)
		}

		iw, err := mw.CreateInline()
		if err != nil {
			return "", nil, fmt.Errorf("creating inline part: %w", err)
		}

		var th mail.InlineHeader
		th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(th)
		if err != nil {
			return "", nil, fmt.Errorf("creating text part: %w", err)
		}
		if _, err := io.WriteString(pw, compose.BodyText); err != nil {
			return "", nil, fmt.Errorf("writing text body: %w", err)
		}
		pw.Close()

		var hh mail.InlineHeader
		hh.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		pw, err = iw.CreatePart(hh)
		if err != nil {
			return "", nil, fmt.Errorf("creating html part: %w", err)
		}
		if _, err := io.WriteString(pw, compose.BodyHTML); err != nil {
			return "", nil, fmt.Errorf("writing html body: %w", err)
		}
		pw.Close()

		iw.Close()
		mw.Close()
	} else {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return "", nil, fmt.Errorf("creating message writer: %w", err)
		}
		if _, err := io.WriteString(w, compose.BodyText); err != nil {
			return "", nil, fmt.Errorf("writing text body: %w", err)
		}
		w.Close()
	}

	return "<" + messageID + ">", buf.Bytes(), nil
}

// messageIDHost picks the host part of a generated Message-ID from the
// sender's address.
func messageIDHost(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "slopmail.local"
}

// toMailAddresses converts model addresses to go-message addresses.
func toMailAddresses(addrs []model.EmailAddress) []*mail.Address {
	out := make([]*mail.Address, len(addrs))
	for i, a := range addrs {
		out[i] = &mail.Address{Name: a.Name, Address: a.Address}
	}
	return out
}
