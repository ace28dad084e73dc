package router

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// Property names of the target database. They must match the columns
// configured in Notion; "Subject" is the title column.
const (
	PropSubject = "Subject"
	PropBody    = "Body"
	PropFrom    = "From"
	PropDate    = "Date"
)

// NotionPages creates one page per action record in a Notion database.
type NotionPages struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
	bodyLimit  int
}

// NewNotionPages returns a page creator for databaseID authenticated
// with apiKey. Bodies are truncated to bodyLimit characters.
func NewNotionPages(apiKey, databaseID string, bodyLimit int) *NotionPages {
	return &NotionPages{
		client:     notionapi.NewClient(notionapi.Token(apiKey)),
		databaseID: notionapi.DatabaseID(databaseID),
		bodyLimit:  bodyLimit,
	}
}

// CreatePage submits rec as a new database entry.
func (n *NotionPages) CreatePage(ctx context.Context, rec Record) error {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: n.databaseID,
		},
		Properties: PageProperties(rec, n.bodyLimit),
	}

	if _, err := n.client.Page.Create(ctx, req); err != nil {
		return fmt.Errorf("creating notion page in %s: %w", n.databaseID, err)
	}
	return nil
}

// PageProperties maps a record onto the four database columns. The Date
// column is omitted when the receipt time is unknown.
func PageProperties(rec Record, bodyLimit int) notionapi.Properties {
	props := notionapi.Properties{
		PropSubject: notionapi.TitleProperty{
			Title: []notionapi.RichText{textBlock(rec.Subject)},
		},
		PropBody: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{textBlock(truncateRunes(rec.Body, bodyLimit))},
		},
		PropFrom: notionapi.EmailProperty{
			Email: rec.Sender,
		},
	}

	if !rec.ReceivedAt.IsUnknown() {
		start := notionapi.Date(rec.ReceivedAt.Time)
		props[PropDate] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		}
	}

	return props
}

func textBlock(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
