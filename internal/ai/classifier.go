package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/nhle/mail-triage/internal/model"
)

const (
	defaultModel     = model.DefaultOllamaModel
	defaultTimeout   = 30 * time.Second
	defaultBodyLimit = model.DefaultPromptLimit
)

// ErrEmptyReply is reported when the model answers with no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Result is the outcome of classifying one message. Label is always one
// of the closed set; Err explains why it is LabelUnknown, if it is.
type Result struct {
	Label model.Label
	Reply string
	Err   error
}

// Classifier asks a local Ollama server to label messages. It is safe
// for sequential use only.
type Classifier struct {
	client    *api.Client
	model     string
	maxTokens int
	bodyLimit int
	logger    *slog.Logger
}

// New creates a classifier for the Ollama server at cfg.BaseURL. Each
// request is bounded by cfg.TimeoutSec.
func New(cfg model.OllamaConfig, logger *slog.Logger) (*Classifier, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama base url %q", cfg.BaseURL)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}

	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Classifier{
		client:    api.NewClient(base, &http.Client{Timeout: timeout}),
		model:     modelName,
		maxTokens: cfg.MaxTokens,
		bodyLimit: bodyLimit,
		logger:    logger,
	}, nil
}

// Classify labels one message. It never fails: a failed call, an empty
// reply or an unrecognised answer all yield LabelUnknown with Err set.
func (c *Classifier) Classify(ctx context.Context, subject, body string) Result {
	reply, err := c.generate(ctx, buildPrompt(subject, body, c.bodyLimit))
	if err != nil {
		return Result{Label: model.LabelUnknown, Err: err}
	}

	if strings.TrimSpace(reply) == "" {
		return Result{Label: model.LabelUnknown, Err: ErrEmptyReply}
	}

	label, ok := NormalizeReply(reply)
	if !ok {
		return Result{
			Label: model.LabelUnknown,
			Reply: reply,
			Err:   fmt.Errorf("unrecognised classification %q", truncate(reply, 80)),
		}
	}

	c.logger.Debug("classified", "label", label.String(), "reply", reply)
	return Result{Label: label, Reply: reply}
}

// generate sends a single non-streaming request with deterministic
// decoding and returns the concatenated response text.
func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	options := map[string]any{
		"temperature": 0.0,
		"format":      "text",
	}
	if c.maxTokens > 0 {
		options["num_predict"] = c.maxTokens
	}

	req := &api.GenerateRequest{
		Model:   c.model,
		System:  systemPrompt,
		Prompt:  prompt,
		Stream:  &stream,
		Options: options,
	}

	var sb strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("calling ollama generate: %w", err)
	}

	return sb.String(), nil
}
