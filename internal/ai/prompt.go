package ai

import (
	"fmt"
	"strings"

	"github.com/nhle/mail-triage/internal/model"
)

const systemPrompt = "You are an email triage assistant. " +
	"Answer with a single category name and nothing else."

// actionMarker is the emoji older prompts put in front of the
// "Action Required" category; models sometimes echo it back.
const actionMarker = "\U0001F17E"

// buildPrompt embeds the subject and the first limit characters of the
// body into the classification instruction.
func buildPrompt(subject, body string, limit int) string {
	names := make([]string, 0, len(model.Labels))
	for _, l := range model.Labels {
		names = append(names, "'"+l.String()+"'")
	}

	var sb strings.Builder
	sb.WriteString("Classify this email into exactly one of these categories: ")
	sb.WriteString(strings.Join(names[:len(names)-1], ", "))
	sb.WriteString(", or ")
	sb.WriteString(names[len(names)-1])
	sb.WriteString(".\n\n")
	sb.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	sb.WriteString(fmt.Sprintf("Body: %s\n\n", truncate(body, limit)))
	sb.WriteString("Respond with only the category name:")
	return sb.String()
}

// truncate returns at most limit characters of s, marking a cut with "...".
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// NormalizeReply maps a free-text model reply onto a label. It trims
// whitespace, drops a leading "Classification:" prefix, surrounding quotes
// and the legacy action marker, then matches the canonical names.
func NormalizeReply(reply string) (model.Label, bool) {
	s := strings.TrimSpace(reply)

	const prefix = "classification:"
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		s = strings.TrimSpace(s[len(prefix):])
	}

	s = strings.Trim(s, "'\"`\u201C\u201D\u2018\u2019")
	s = strings.TrimPrefix(s, actionMarker)
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFE0F"))
	s = strings.TrimSuffix(s, ".")

	return model.ParseLabel(s)
}
