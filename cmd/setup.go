package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/logging"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/ui/setup"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure the mailbox, model and Notion database interactively",
		Long: `Walk through the settings needed for a run. Passwords and API keys are
stored in the system keyring; everything else is written to the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			creds := credential.New()
			answers := setupAnswers(cfg, creds)
			if err := setup.Run(&answers); err != nil {
				return err
			}
			if err := applySetup(creds, cfg, answers); err != nil {
				return err
			}

			if err := model.SaveConfig(cfgFile, cfg); err != nil {
				return err
			}

			slog.Info("configuration saved",
				logging.Operation("setup"),
				logging.Provider(cfg.Mail.Provider),
				logging.Account(cfg.Mail.Account),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", cfgFile)
			return nil
		},
	}
}

// setupAnswers pre-fills the form and notes whether a Notion key is
// already available.
func setupAnswers(cfg *model.AppConfig, creds *credential.Store) setup.Answers {
	answers := setup.AnswersFrom(cfg)
	key, _ := resolveSecret(creds, credential.EnvNotionAPIKey, credential.NotionKey)
	answers.NotionKeyStored = key != ""
	return answers
}

// applySetup validates the answers, copies them onto cfg and stores the
// secrets that were entered.
func applySetup(creds *credential.Store, cfg *model.AppConfig, answers setup.Answers) error {
	if err := answers.Validate(); err != nil {
		return err
	}
	answers.Apply(cfg)

	if err := creds.Set(credential.MailKey(cfg.Mail.Account), answers.Password); err != nil {
		return err
	}
	if key := strings.TrimSpace(answers.NotionKey); key != "" {
		if err := creds.Set(credential.NotionKey, key); err != nil {
			return err
		}
	}
	return nil
}
