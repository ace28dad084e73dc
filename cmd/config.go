package cmd

import (
	"errors"
	"log/slog"

	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/logging"
	"github.com/nhle/mail-triage/internal/model"
)

// loadConfig reads the config file and resolves secrets from the
// environment or keyring. Missing secrets are left empty for Validate to
// report.
func loadConfig(creds *credential.Store) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if cfg.Mail.Account != "" {
		cfg.Mail.Password, err = resolveSecret(creds, credential.EnvMailPassword, credential.MailKey(cfg.Mail.Account))
		if err != nil {
			return nil, err
		}
	}

	cfg.Notion.APIKey, err = resolveSecret(creds, credential.EnvNotionAPIKey, credential.NotionKey)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveSecret returns "" without error when the secret is absent.
func resolveSecret(creds *credential.Store, envVar, key string) (string, error) {
	v, err := creds.Resolve(envVar, key)
	if errors.Is(err, credential.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		// An unusable keyring is reported but treated like a missing secret.
		slog.Warn("keyring unavailable", slog.String("key", key), logging.Err(err))
		return "", nil
	}
	return v, nil
}
