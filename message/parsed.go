package message

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"mailread/model"

	// Register common charsets so non-UTF-8 messages decode.
	_ "github.com/emersion/go-message/charset"
)

// Parsed exposes the header fields of a MIME-parsed message.
type Parsed struct {
	header gomail.Header
}

// Parse runs the raw message through the MIME parser. Callers treat a
// failure here as a degradation, not an abort: the structured headers
// of an unparsable message are simply all absent.
func Parse(raw []byte) (*Parsed, error) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()
	return &Parsed{header: mr.Header}, nil
}

// AddressField returns the parsed form of an address header, and
// whether the header is present.
func (p *Parsed) AddressField(key string) (model.AddressField, bool) {
	raw := strings.TrimSpace(p.header.Get(key))
	if raw == "" {
		return model.AddressField{}, false
	}
	return ParseAddressField(raw), true
}

// Subject returns the decoded subject, and whether it is present.
func (p *Parsed) Subject() (string, bool) {
	subject, err := p.header.Subject()
	if err != nil {
		subject = p.header.Get("Subject")
	}
	subject = strings.TrimSpace(subject)
	return subject, subject != ""
}

// Date returns the parsed date header, and whether it is present.
func (p *Parsed) Date() (time.Time, bool) {
	date, err := p.header.Date()
	if err != nil || date.IsZero() {
		return time.Time{}, false
	}
	return date, true
}

// MessageID returns the Message-Id value, and whether it is present.
func (p *Parsed) MessageID() (string, bool) {
	id, err := p.header.MessageID()
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// InReplyTo returns the first In-Reply-To identifier when the header
// lists several, and whether any is present.
func (p *Parsed) InReplyTo() (string, bool) {
	ids, err := p.header.MsgIDList("In-Reply-To")
	if err != nil || len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// ProjectHeaders derives the structured header record from the parsed
// message. It is computed from the parser every time, independent of
// which headers the display template chose to show.
func ProjectHeaders(p *Parsed) model.MessageHeaders {
	var headers model.MessageHeaders

	if field, ok := p.AddressField("From"); ok {
		headers.From = FormatAddressField(field)
	}
	if field, ok := p.AddressField("To"); ok {
		headers.To = FormatAddressField(field)
	}
	if field, ok := p.AddressField("Cc"); ok {
		headers.Cc = FormatAddressField(field)
	}
	if field, ok := p.AddressField("Bcc"); ok {
		headers.Bcc = FormatAddressField(field)
	}
	if subject, ok := p.Subject(); ok {
		headers.Subject = subject
	}
	if date, ok := p.Date(); ok {
		headers.Date = date.Format(time.RFC3339)
	}
	if id, ok := p.MessageID(); ok {
		headers.MessageID = id
	}
	if id, ok := p.InReplyTo(); ok {
		headers.InReplyTo = id
	}

	return headers
}
