package router

import (
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/source"
)

// Record is the action record derived from a parsed message and its label.
type Record struct {
	MessageID  source.MessageID
	Subject    string
	Sender     string
	ReceivedAt model.ReceivedAt
	Label      model.Label
	Body       string
}

// NewRecord builds a Record for a parsed message.
func NewRecord(id source.MessageID, msg model.ParsedMessage, label model.Label) Record {
	return Record{
		MessageID:  id,
		Subject:    msg.Subject,
		Sender:     msg.Sender,
		ReceivedAt: msg.ReceivedAt,
		Label:      label,
		Body:       msg.Body,
	}
}
