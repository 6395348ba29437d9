package openrouter

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the OpenRouter chat/completions client.
type Config struct {
	APIKey      string        // empty disables every call
	URL         string        // full chat/completions endpoint
	Model       string        // e.g. "anthropic/claude-3.5-sonnet"
	Referer     string        // sent as HTTP-Referer
	Temperature float32       // 0..2
	MaxTokens   int           // reply budget for similarity answers
	Timeout     time.Duration // http client timeout
	FillTimeout time.Duration // hard cap on one FillMissing call
	// LenientFill drops junk values from a filler reply and re-validates
	// instead of failing the whole reply.
	LenientFill bool
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "anthropic/claude-3.5-sonnet"
	}
	if cfg.Referer == "" {
		cfg.Referer = "https://github.com/joseph-ayodele/jurisprudence"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FillTimeout <= 0 {
		cfg.FillTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }
