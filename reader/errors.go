package reader

import "fmt"

// ConfigError means account or configuration resolution failed. It is
// fatal and occurs before any fetch.
type ConfigError struct {
	Account string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("resolve account config: %v", e.Err)
	}
	return fmt.Sprintf("resolve account %q: %v", e.Account, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError means backend retrieval failed. The whole batch aborts;
// no partial results are produced.
type FetchError struct {
	Folder string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch messages from %q: %v", e.Folder, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RenderError means the display template of one message could not be
// produced. Unlike a MIME parse failure it aborts the whole read.
type RenderError struct {
	ID  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render message %s: %v", e.ID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
