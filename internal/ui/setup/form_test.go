package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-triage/internal/model"
)

func TestValidators(t *testing.T) {
	assert.Error(t, validateRequired("Model")("  "))
	assert.NoError(t, validateRequired("Model")("gemma3"))

	assert.Error(t, validateAddress(""))
	assert.Error(t, validateAddress("not-an-address"))
	assert.NoError(t, validateAddress("me@example.com"))

	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("localhost"))
	assert.NoError(t, validateURL("http://localhost:11434"))
}

func TestAnswersValidate(t *testing.T) {
	a := Answers{Account: "me@example.com", OllamaURL: model.DefaultOllamaURL}
	assert.NoError(t, a.Validate())

	a.NotionDatabase = "db"
	assert.Error(t, a.Validate())

	a.NotionKey = "secret"
	assert.NoError(t, a.Validate())
}

func TestAnswersValidate_StoredNotionKey(t *testing.T) {
	a := Answers{
		Account:         "me@example.com",
		OllamaURL:       model.DefaultOllamaURL,
		NotionDatabase:  "db",
		NotionKeyStored: true,
	}
	assert.NoError(t, a.Validate())
	assert.Equal(t, "Leave empty to keep the stored key", notionKeyHint(a.NotionKeyStored))
}

func TestAnswersApplyRoundTrip(t *testing.T) {
	cfg := &model.AppConfig{}
	a := Answers{
		Provider:       "icloud",
		Account:        " me@icloud.com ",
		Password:       "pw",
		OllamaURL:      "http://gpu:11434",
		OllamaModel:    "llama3",
		NotionDatabase: "db",
		NotionKey:      "secret",
		MarkSeen:       true,
	}
	a.Apply(cfg)

	assert.Equal(t, "icloud", cfg.Mail.Provider)
	assert.Equal(t, "me@icloud.com", cfg.Mail.Account)
	assert.Empty(t, cfg.Mail.Password)
	assert.Empty(t, cfg.Notion.APIKey)
	assert.True(t, cfg.Run.MarkSeen)

	back := AnswersFrom(cfg)
	assert.Equal(t, "db", back.NotionDatabase)
	assert.Empty(t, back.Password)
}

func TestNewFormBuilds(t *testing.T) {
	a := &Answers{}
	assert.NotNil(t, NewForm(a))
}
