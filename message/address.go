package message

import (
	"fmt"
	"net/mail"
	"strings"

	"mailread/model"
)

// ParseAddressField parses a raw address header value into either a
// flat mailbox list or a list of RFC 5322 groups. Malformed input never
// fails: it degrades to a single name-only entry carrying the raw text.
func ParseAddressField(raw string) model.AddressField {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.AddressField{}
	}

	if hasGroupSyntax(raw) {
		return model.AddressField{Groups: parseGroups(raw)}
	}

	list, err := mail.ParseAddressList(raw)
	if err != nil {
		return model.AddressField{Flat: []model.Mailbox{{Name: raw}}}
	}

	flat := make([]model.Mailbox, 0, len(list))
	for _, addr := range list {
		flat = append(flat, model.Mailbox{Name: addr.Name, Address: addr.Address})
	}
	return model.AddressField{Flat: flat}
}

// FormatAddressField renders an address field for display.
//
// Flat entries become "Name <address>", "address" or "Name" depending
// on which parts are present, joined by ", "; empty entries are
// dropped. Groups become "Name: member1, member2;" using member
// addresses only, joined by a single space.
func FormatAddressField(field model.AddressField) string {
	if field.Grouped() {
		parts := make([]string, 0, len(field.Groups))
		for _, group := range field.Groups {
			members := make([]string, 0, len(group.Members))
			for _, m := range group.Members {
				if m.Address != "" {
					members = append(members, m.Address)
				}
			}
			parts = append(parts, fmt.Sprintf("%s: %s;", group.Name, strings.Join(members, ", ")))
		}
		return strings.Join(parts, " ")
	}

	parts := make([]string, 0, len(field.Flat))
	for _, m := range field.Flat {
		switch {
		case m.Name != "" && m.Address != "":
			parts = append(parts, fmt.Sprintf("%s <%s>", m.Name, m.Address))
		case m.Address != "":
			parts = append(parts, m.Address)
		case m.Name != "":
			parts = append(parts, m.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// hasGroupSyntax reports whether the value contains a top-level colon,
// which marks an address group. Colons inside quoted strings or angle
// brackets do not count.
func hasGroupSyntax(raw string) bool {
	inQuote := false
	inAngle := false
	for _, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '<':
			inAngle = true
		case r == '>':
			inAngle = false
		case r == ':' && !inAngle:
			return true
		}
	}
	return false
}

// parseGroups splits a grouped field on top-level semicolons and parses
// each "Name: members" chunk. A chunk without a colon is treated as an
// unnamed group so stray trailing mailboxes are not lost.
func parseGroups(raw string) []model.Group {
	var groups []model.Group
	for _, chunk := range splitTopLevel(raw, ';') {
		chunk = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(chunk), ","))
		if chunk == "" {
			continue
		}

		name := ""
		members := chunk
		if idx := topLevelIndex(chunk, ':'); idx >= 0 {
			name = strings.TrimSpace(chunk[:idx])
			members = strings.TrimSpace(chunk[idx+1:])
		}

		group := model.Group{Name: name}
		if members != "" {
			if list, err := mail.ParseAddressList(members); err == nil {
				for _, addr := range list {
					group.Members = append(group.Members, model.Mailbox{Name: addr.Name, Address: addr.Address})
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func splitTopLevel(raw string, sep rune) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	inAngle := false
	for _, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '<':
			inAngle = true
		case r == '>':
			inAngle = false
		case r == sep && !inAngle:
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func topLevelIndex(raw string, target rune) int {
	inQuote := false
	inAngle := false
	for idx, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '<':
			inAngle = true
		case r == '>':
			inAngle = false
		case r == target && !inAngle:
			return idx
		}
	}
	return -1
}
