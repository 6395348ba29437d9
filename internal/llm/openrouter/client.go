package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/jurisprudence/internal/llm"
)

// ErrNotConfigured is returned by ranking calls when no API key is set.
var ErrNotConfigured = llm.ErrNotConfigured

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"HTTP-Referer":  c.cfg.Referer,
	}
}

func (c *Client) body(msgs []message, maxTokens int, stream bool) map[string]any {
	b := map[string]any{
		"model":       c.cfg.Model,
		"messages":    msgs,
		"temperature": c.cfg.Temperature,
		"max_tokens":  maxTokens,
	}
	if stream {
		b["stream"] = true
	}
	return b
}

// complete runs one non-streaming chat call and returns the first choice text.
func (c *Client) complete(ctx context.Context, msgs []message, maxTokens int) (string, error) {
	raw, status, err := llm.SendJSON(ctx, c.http, c.cfg.URL, c.body(msgs, maxTokens, false), c.headers(), c.logger)
	if err != nil {
		return "", err
	}
	var cc completion
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if cc.Error != nil {
		return "", fmt.Errorf("openrouter error (status %d): %s", status, cc.Error.Message)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices in openrouter response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

// stream runs a streaming chat call, passing each content delta to onDelta,
// and returns the concatenated reply.
func (c *Client) stream(ctx context.Context, msgs []message, maxTokens int, onDelta func(string)) (string, error) {
	var sb strings.Builder
	err := llm.StreamSSE(ctx, c.http, c.cfg.URL, c.body(msgs, maxTokens, true), c.headers(), c.logger, func(payload []byte) error {
		var cc completion
		if err := json.Unmarshal(payload, &cc); err != nil {
			// keep-alive comments and partial frames are skipped
			return nil
		}
		if cc.Error != nil {
			return fmt.Errorf("openrouter stream error: %s", cc.Error.Message)
		}
		if len(cc.Choices) == 0 {
			return nil
		}
		d := cc.Choices[0].Delta.Content
		if d == "" {
			return nil
		}
		sb.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
		return nil
	})
	if err != nil {
		return sb.String(), err
	}
	return strings.TrimSpace(sb.String()), nil
}
