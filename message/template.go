package message

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"mailread/model"
)

// RenderTemplate produces the display form of a message: a header block
// governed by the policy, a blank line, then the plain text body. With
// all headers hidden the template is the body alone.
//
// A message the MIME parser rejects still renders: the raw header and
// body split is used instead, with best-effort header values. Errors
// from decoding the body parts are returned and abort the whole read.
func RenderTemplate(raw []byte, policy model.HeaderPolicy, configured []string) (string, error) {
	names := policy.Visible(configured)

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		header, body := SplitRawMessage(raw)
		return joinTemplate(rawHeaderBlock(header, names), string(body)), nil
	}
	defer mr.Close()

	parsed := &Parsed{header: mr.Header}
	body, err := inlineTextBody(mr)
	if err != nil {
		return "", err
	}

	return joinTemplate(headerBlock(parsed, names), body), nil
}

// ExtractBody isolates the body of a rendered template: everything
// after the first blank line. A bare "\n\n" is looked for before a
// "\r\n\r\n", and a template without either is all body.
func ExtractBody(tpl string) string {
	if idx := strings.Index(tpl, "\n\n"); idx >= 0 {
		return tpl[idx+2:]
	}
	if idx := strings.Index(tpl, "\r\n\r\n"); idx >= 0 {
		return tpl[idx+4:]
	}
	return tpl
}

// SplitRawMessage cuts a raw message at the first blank line into its
// header and body sections. Without a blank line the whole input is
// header.
func SplitRawMessage(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}

func joinTemplate(headerBlock, body string) string {
	if headerBlock == "" {
		return body
	}
	return headerBlock + "\n" + body
}

// headerBlock renders "Name: value" lines for every requested header
// present in the message, in the requested order.
func headerBlock(p *Parsed, names []string) string {
	var b strings.Builder
	for _, name := range names {
		value := headerValue(p, name)
		if value == "" {
			continue
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}

func headerValue(p *Parsed, name string) string {
	switch strings.ToLower(name) {
	case "from", "to", "cc", "bcc", "reply-to":
		field, ok := p.AddressField(name)
		if !ok {
			return ""
		}
		return FormatAddressField(field)
	case "date":
		if date, ok := p.Date(); ok {
			return date.Format(time.RFC1123Z)
		}
		return strings.TrimSpace(p.header.Get(name))
	default:
		if value, err := p.header.Text(name); err == nil {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(p.header.Get(name))
	}
}

// rawHeaderBlock is the fallback for messages the MIME parser rejects.
// Header values are taken verbatim from a plain RFC 822 header read; if
// even that fails the block is empty and the template is body only.
func rawHeaderBlock(header []byte, names []string) string {
	if len(header) == 0 || len(names) == 0 {
		return ""
	}

	reader := textproto.NewReader(bufio.NewReader(bytes.NewReader(append(header, "\r\n\r\n"...))))
	mimeHeader, err := reader.ReadMIMEHeader()
	if err != nil && len(mimeHeader) == 0 {
		return ""
	}

	var b strings.Builder
	for _, name := range names {
		value := strings.TrimSpace(mimeHeader.Get(name))
		if value == "" {
			continue
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}

// inlineTextBody walks the MIME parts and returns the first text/plain
// inline part, falling back to the first inline text part of any
// subtype when the message has no plain alternative.
func inlineTextBody(mr *gomail.Reader) (string, error) {
	var fallback string
	haveFallback := false

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next part: %w", err)
		}

		header, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := header.ContentType()
		if err != nil {
			contentType = "text/plain"
		}

		switch {
		case contentType == "text/plain" || contentType == "":
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return "", fmt.Errorf("read body part: %w", err)
			}
			return string(data), nil
		case strings.HasPrefix(contentType, "text/") && !haveFallback:
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return "", fmt.Errorf("read body part: %w", err)
			}
			fallback = string(data)
			haveFallback = true
		}
	}

	return fallback, nil
}
