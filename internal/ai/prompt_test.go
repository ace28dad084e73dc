package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-triage/internal/model"
)

func TestNormalizeReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  model.Label
		ok    bool
	}{
		{"exact", "Action Required", model.LabelActionRequired, true},
		{"whitespace", "  Spam\n", model.LabelSpam, true},
		{"prefix", "Classification: Low Priority", model.LabelLowPriority, true},
		{"prefix lower case", "classification:spam", model.LabelSpam, true},
		{"double quotes", `"Action Required"`, model.LabelActionRequired, true},
		{"single quotes", "'Spam'", model.LabelSpam, true},
		{"curly quotes", "“Low Priority”", model.LabelLowPriority, true},
		{"case insensitive", "ACTION REQUIRED", model.LabelActionRequired, true},
		{"trailing period", "Spam.", model.LabelSpam, true},
		{"marker", "\U0001F17E\uFE0F Action Required", model.LabelActionRequired, true},
		{"free text", "I think this is probably spam", model.LabelUnknown, false},
		{"unknown is not a label", "Unknown", model.LabelUnknown, false},
		{"empty", "", model.LabelUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeReply(tt.reply)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Invoice Due", "Please pay by Friday", 500)

	assert.Contains(t, prompt, "'Action Required', 'Spam', or 'Low Priority'")
	assert.Contains(t, prompt, "Subject: Invoice Due\n")
	assert.Contains(t, prompt, "Body: Please pay by Friday\n")
	assert.True(t, strings.HasSuffix(prompt, "Respond with only the category name:"))
}

func TestBuildPrompt_TruncatesLongBody(t *testing.T) {
	body := strings.Repeat("x", 10000)
	prompt := buildPrompt("s", body, 500)

	assert.Contains(t, prompt, "Body: "+strings.Repeat("x", 500)+"...\n")
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abc", 2))
	assert.Equal(t, "äö...", truncate("äöü", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}
