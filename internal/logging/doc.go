// Package logging provides structured logging helpers for mailtriage.
//
// All logging goes through log/slog. This package centralizes attribute
// keys so that a run can be followed across the fetch, classify and route
// stages by message identifier, and keeps account names and secrets out of
// log output.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "triage.run")
//	logger.Info("classified",
//	    logging.MessageID(id),
//	    logging.Label(label.String()))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("connecting", logging.Account(account))
package logging
