package model

import "strings"

// MessageHeaders is the machine-oriented header subset of a message.
// A field is set only when the source header exists and is non-empty;
// unset fields are omitted from JSON output entirely.
type MessageHeaders struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Cc        string `json:"cc,omitempty"`
	Bcc       string `json:"bcc,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Date      string `json:"date,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	InReplyTo string `json:"in_reply_to,omitempty"`
}

// StructuredMessage is one read message: the envelope id it was
// requested under (or its positional index when no id was supplied),
// its projected headers and its plain text body.
type StructuredMessage struct {
	ID      string         `json:"id"`
	Headers MessageHeaders `json:"headers"`
	Body    string         `json:"body"`
}

// StructuredMessages preserves the order of the requested envelope ids.
type StructuredMessages []StructuredMessage

// String renders the human-readable form: the bodies joined by a single
// blank line, no headers, no leading or trailing separator.
func (s StructuredMessages) String() string {
	var b strings.Builder
	glue := ""
	for _, msg := range s {
		b.WriteString(glue)
		b.WriteString(msg.Body)
		glue = "\n\n"
	}
	return b.String()
}
