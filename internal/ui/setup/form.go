// Package setup implements the interactive first-run configuration form.
package setup

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/source"
)

// Answers holds everything the form collects. Secrets stay here and are
// handed to the keyring by the caller; they never reach the config file.
type Answers struct {
	Provider       string
	Account        string
	Password       string
	OllamaURL      string
	OllamaModel    string
	NotionDatabase string
	NotionKey      string
	MarkSeen       bool

	// NotionKeyStored reports that a Notion key already exists in the
	// environment or keyring, so leaving NotionKey empty keeps it.
	NotionKeyStored bool
}

// AnswersFrom pre-fills the form from an existing configuration.
func AnswersFrom(cfg *model.AppConfig) Answers {
	return Answers{
		Provider:       cfg.Mail.Provider,
		Account:        cfg.Mail.Account,
		OllamaURL:      cfg.Ollama.BaseURL,
		OllamaModel:    cfg.Ollama.Model,
		NotionDatabase: cfg.Notion.DatabaseID,
		MarkSeen:       cfg.Run.MarkSeen,
	}
}

// Apply copies the non-secret answers onto cfg.
func (a Answers) Apply(cfg *model.AppConfig) {
	cfg.Mail.Provider = a.Provider
	cfg.Mail.Account = strings.TrimSpace(a.Account)
	cfg.Ollama.BaseURL = strings.TrimSpace(a.OllamaURL)
	cfg.Ollama.Model = strings.TrimSpace(a.OllamaModel)
	cfg.Notion.DatabaseID = strings.TrimSpace(a.NotionDatabase)
	cfg.Run.MarkSeen = a.MarkSeen
}

// NewForm builds the setup form bound to a.
func NewForm(a *Answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Mail Provider").
				Description("Choose where your inbox lives").
				Options(
					huh.NewOption("Gmail - imap.gmail.com", string(source.ProviderGmail)),
					huh.NewOption("iCloud - imap.mail.me.com", string(source.ProviderICloud)),
				).
				Value(&a.Provider),
			huh.NewInput().
				Title("Account").
				Description("Full mailbox address").
				Placeholder("user@example.com").
				Value(&a.Account).
				Validate(validateAddress),
			huh.NewInput().
				Title("App Password").
				Description("Application-specific password, stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&a.Password).
				Validate(validateRequired("App password")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Ollama URL").
				Description("Local text-generation server").
				Placeholder(model.DefaultOllamaURL).
				Value(&a.OllamaURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Model").
				Placeholder(model.DefaultOllamaModel).
				Value(&a.OllamaModel).
				Validate(validateRequired("Model")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Notion Database ID").
				Description("Optional; leave empty to only write the local log").
				Value(&a.NotionDatabase),
			huh.NewInput().
				Title("Notion API Key").
				Description(notionKeyHint(a.NotionKeyStored)).
				EchoMode(huh.EchoModePassword).
				Value(&a.NotionKey),
			huh.NewConfirm().
				Title("Mark processed mail as read").
				Affirmative("Yes").
				Negative("No").
				Value(&a.MarkSeen),
		),
	)
}

// Run shows the form full screen and blocks until it is submitted or
// aborted.
func Run(a *Answers) error {
	return NewForm(a).
		WithProgramOptions(tea.WithAltScreen()).
		Run()
}

// Validate checks the answers as a whole, for example a Notion database
// without a key.
func (a Answers) Validate() error {
	if err := validateAddress(a.Account); err != nil {
		return err
	}
	if err := validateURL(a.OllamaURL); err != nil {
		return err
	}
	if strings.TrimSpace(a.NotionDatabase) != "" && strings.TrimSpace(a.NotionKey) == "" && !a.NotionKeyStored {
		return fmt.Errorf("a Notion API key is required when a database ID is set")
	}
	return nil
}

func notionKeyHint(stored bool) string {
	if stored {
		return "Leave empty to keep the stored key"
	}
	return "Optional; stored in the system keyring"
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateAddress(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("account is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	return nil
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., http://localhost:11434)")
	}
	return nil
}
