package model

import "time"

// UnknownDate is how an unknown receipt timestamp is rendered.
const UnknownDate = "Unknown Date"

// ReceivedAt is a receipt timestamp that may be explicitly unknown.
// The zero value is the unknown marker, which is distinct from a known
// timestamp at the Unix epoch or the zero time.
type ReceivedAt struct {
	Time  time.Time
	Known bool
}

// KnownAt returns a known ReceivedAt for t.
func KnownAt(t time.Time) ReceivedAt {
	return ReceivedAt{Time: t, Known: true}
}

// UnknownReceivedAt returns the explicit unknown marker.
func UnknownReceivedAt() ReceivedAt {
	return ReceivedAt{}
}

// IsUnknown reports whether no timestamp could be determined.
func (r ReceivedAt) IsUnknown() bool {
	return !r.Known
}

// ISO8601 returns the timestamp in RFC 3339 form, or "" when unknown.
func (r ReceivedAt) ISO8601() string {
	if !r.Known {
		return ""
	}
	return r.Time.Format(time.RFC3339)
}

func (r ReceivedAt) String() string {
	if !r.Known {
		return UnknownDate
	}
	return r.Time.Format("2006-01-02 15:04:05 -0700")
}

// Placeholders used when a header is missing or cannot be decoded.
const (
	NoSubject     = "No Subject"
	UnknownSender = "Unknown Sender"
)

// ParsedMessage is the immutable result of parsing one raw message.
type ParsedMessage struct {
	Subject string

	// Sender is the bare address when the From header parses, otherwise
	// the decoded header text.
	Sender     string
	SenderName string

	ReceivedAt ReceivedAt
	Body       string
}
