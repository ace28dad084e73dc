package model

import "time"

// TriageResult records what happened to one message during a run.
type TriageResult struct {
	ID        string `json:"id"`
	RunID     string `json:"run_id"`
	Provider  string `json:"provider"`
	MessageID string `json:"message_id"`

	Subject    string     `json:"subject"`
	Sender     string     `json:"sender"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
	Label      Label      `json:"label"`

	// LoggedLocally and SavedRemotely are the per-destination outcomes.
	LoggedLocally bool `json:"logged_locally"`
	SavedRemotely bool `json:"saved_remotely"`

	// Error holds the last non-fatal failure text for this message.
	Error string `json:"error,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Run is one invocation of the triage driver.
type Run struct {
	ID         string     `json:"id" db:"id"`
	Provider   string     `json:"provider" db:"provider"`
	Account    string     `json:"account" db:"account"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Total      int        `json:"total" db:"total"`
	Processed  int        `json:"processed" db:"processed"`
	Routed     int        `json:"routed" db:"routed"`
	Error      string     `json:"error,omitempty" db:"error"`
}
