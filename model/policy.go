package model

// HeaderPolicyMode selects how the header block of a rendered message
// is populated.
type HeaderPolicyMode int

const (
	// ShowConfiguredHeaders shows the header list configured on the
	// account (the default).
	ShowConfiguredHeaders HeaderPolicyMode = iota
	// HideAllHeaders renders the body only.
	HideAllHeaders
	// ShowOnlyHeaders shows exactly the headers listed on the policy.
	ShowOnlyHeaders
)

// DefaultReadHeaders is used when an account configures no header list.
var DefaultReadHeaders = []string{"From", "To", "Cc", "Subject"}

// HeaderPolicy is constructed once at the CLI boundary, where the
// hide-all and show-only flags are validated as mutually exclusive.
type HeaderPolicy struct {
	Mode    HeaderPolicyMode
	Headers []string
}

// Visible resolves the policy against the account's configured header
// list and returns the header names to render, nil for hide-all.
func (p HeaderPolicy) Visible(configured []string) []string {
	switch p.Mode {
	case HideAllHeaders:
		return nil
	case ShowOnlyHeaders:
		return p.Headers
	default:
		if len(configured) == 0 {
			return DefaultReadHeaders
		}
		return configured
	}
}
