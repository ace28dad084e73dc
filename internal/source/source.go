package source

import (
	"context"
	"errors"
	"fmt"
)

// ProviderType identifies a mail provider preset.
type ProviderType string

const (
	ProviderGmail  ProviderType = "gmail"
	ProviderICloud ProviderType = "icloud"
)

// MessageID is an opaque handle for one message, valid only within the
// session that produced it. Depending on the provider it carries a
// sequence number or a UID.
type MessageID string

// Mailbox is the capability every mail provider variant implements.
// A Mailbox holds at most one open session and is not safe for
// concurrent use.
type Mailbox interface {
	// Provider returns the provider preset this mailbox was built from.
	Provider() ProviderType

	// Connect opens a TLS session, authenticates and selects the inbox.
	// It fails with a *ConnectionError, *AuthError or *SelectError.
	Connect(ctx context.Context) error

	// ListUnread returns the messages flagged unread at call time, in
	// server order. An empty result is not an error.
	ListUnread(ctx context.Context) ([]MessageID, error)

	// Fetch returns the full raw RFC 5322 message. It fails with a
	// *FetchError that only concerns this identifier.
	Fetch(ctx context.Context, id MessageID) ([]byte, error)

	// MarkSeen sets the \Seen flag on a message.
	MarkSeen(ctx context.Context, id MessageID) error

	// Close logs out and releases the session. It is safe to call on a
	// mailbox that never connected.
	Close() error
}

// ConnectionError indicates a network-level failure reaching the server.
type ConnectionError struct {
	Provider ProviderType
	Addr     string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s) to %s: %v", e.Provider, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError indicates the server rejected the credentials.
type AuthError struct {
	Provider ProviderType
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Provider, e.Message)
}

// SelectError indicates the mailbox could not be selected after login.
type SelectError struct {
	Provider ProviderType
	Mailbox  string
	Err      error
}

func (e *SelectError) Error() string {
	return fmt.Sprintf("selecting %s (%s): %v", e.Mailbox, e.Provider, e.Err)
}

func (e *SelectError) Unwrap() error { return e.Err }

// FetchError indicates one message could not be retrieved.
type FetchError struct {
	ID  MessageID
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching message %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrNotConnected is returned by session operations before Connect.
var ErrNotConnected = errors.New("mailbox is not connected")

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsConnectionError reports whether err (or any error in its chain) is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsSelectError reports whether err (or any error in its chain) is a
// SelectError.
func IsSelectError(err error) bool {
	var selErr *SelectError
	return errors.As(err, &selErr)
}

// IsFetchError reports whether err (or any error in its chain) is a
// FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// IsFatal reports whether err must abort a run before any message is
// processed.
func IsFatal(err error) bool {
	return IsConnectionError(err) || IsAuthError(err) || IsSelectError(err)
}
