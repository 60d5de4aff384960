package model

import "time"

// Message is a single raw email message as returned by a backend.
type Message struct {
	Raw        []byte
	ReceivedAt time.Time
	Size       int64
}

// Mailbox is one addressee: a display name, an address, or both.
// An entry with neither contributes nothing to formatted output.
type Mailbox struct {
	Name    string
	Address string
}

// Group is a named set of mailboxes (RFC 5322 address group).
type Group struct {
	Name    string
	Members []Mailbox
}

// AddressField is a parsed address header. It is either a flat list of
// mailboxes or a list of named groups, never both; Groups takes
// precedence when non-empty.
type AddressField struct {
	Flat   []Mailbox
	Groups []Group
}

// Grouped reports whether the field carries group addresses.
func (f AddressField) Grouped() bool {
	return len(f.Groups) > 0
}

// Empty reports whether the field carries no addresses at all.
func (f AddressField) Empty() bool {
	return len(f.Flat) == 0 && len(f.Groups) == 0
}
