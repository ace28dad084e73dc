package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/logging"
	"github.com/nhle/mail-triage/internal/model"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage secrets stored in the system keyring",
		Long: `Store or remove secrets in the system keyring.

KEY is either "mail" (the app password of the configured account),
"notion" (the Notion API key) or a raw keyring key.`,
	}

	cmd.AddCommand(newCredentialsSetCmd(), newCredentialsDeleteCmd())
	return cmd
}

func newCredentialsSetCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set KEY",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyringKey(args[0])
			if err != nil {
				return err
			}

			if value == "" {
				err := huh.NewInput().
					Title("Value for " + key).
					EchoMode(huh.EchoModePassword).
					Value(&value).
					Run()
				if err != nil {
					return err
				}
			}

			if err := credential.New().Set(key, strings.TrimSpace(value)); err != nil {
				return err
			}
			slog.Debug("credential stored", logging.Operation("credentials.set"), slog.String("key", key))
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "secret value (prompted when omitted)")
	return cmd
}

func newCredentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyringKey(args[0])
			if err != nil {
				return err
			}
			if err := credential.New().Delete(key); err != nil {
				return err
			}
			slog.Debug("credential deleted", logging.Operation("credentials.delete"), slog.String("key", key))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
			return nil
		},
	}
}

// keyringKey expands the "mail" and "notion" shorthands.
func keyringKey(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", fmt.Errorf("key must not be empty")
	case "notion":
		return credential.NotionKey, nil
	case "mail":
		cfg, err := model.LoadConfig(cfgFile)
		if err != nil {
			return "", err
		}
		if cfg.Mail.Account == "" {
			return "", fmt.Errorf("mail.account is not set; run `mailtriage setup` or pass the full key")
		}
		return credential.MailKey(cfg.Mail.Account), nil
	default:
		return name, nil
	}
}
