package printer

import (
	"encoding/json"
	"fmt"
	"io"
)

// Printer emits the result of an operation. Implementations decide
// whether the value renders as structured data or display text.
type Printer interface {
	Out(v any) error
}

// New selects a printer by output format name.
func New(format string, w io.Writer) (Printer, error) {
	switch format {
	case "json":
		return JSON{W: w}, nil
	case "text", "":
		return Text{W: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// JSON prints values as indented JSON.
type JSON struct {
	W io.Writer
}

func (p JSON) Out(v any) error {
	enc := json.NewEncoder(p.W)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// Text prints values in their human-readable form, preferring the
// fmt.Stringer rendering when the value has one.
type Text struct {
	W io.Writer
}

func (p Text) Out(v any) error {
	var err error
	if s, ok := v.(fmt.Stringer); ok {
		_, err = fmt.Fprintln(p.W, s.String())
	} else {
		_, err = fmt.Fprintln(p.W, v)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
