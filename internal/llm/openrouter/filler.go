package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
)

const fillMaxTokens = 800

var _ llm.FieldFiller = (*Client)(nil)

// FillMissing asks the model for req.Missing only. It is bounded by
// FillTimeout and reports every failure through the result status.
func (c *Client) FillMissing(ctx context.Context, req llm.FillRequest) llm.FillResult {
	if !c.Enabled() || len(req.Missing) == 0 {
		return llm.Skipped()
	}

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("llm.fill.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"missing", req.Missing,
		"text_len", len(req.Text),
		"filename", req.Filename,
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.FillTimeout)
	defer cancel()

	msgs := []message{
		{Role: "system", Content: llm.BuildFillSystemPrompt(req.Missing)},
		{Role: "user", Content: llm.BuildFillUserPrompt(req)},
	}
	content, err := c.complete(ctx, msgs, fillMaxTokens)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("llm.fill.timeout", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
			return llm.TimedOut(err)
		}
		c.logger.Error("llm.fill.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Failed(err)
	}

	doc, ok := llm.ExtractJSONObject(content)
	if !ok {
		c.logger.Error("llm.fill.no_json", "req_id", rid, "content_len", len(content))
		return llm.Failed(errors.New("reply holds no JSON object"))
	}

	schema := llm.BuildFillJSONSchema(req.Missing)
	rawContent := []byte(doc)
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.LenientFill {
			c.logger.Error("llm.fill.schema_validation_failed", "req_id", rid, "error", err, "content", doc)
			return llm.Failed(fmt.Errorf("schema validation failed: %w", err))
		}
		cleaned, dropped, sErr := llm.SanitizeFillFields(rawContent, req.Missing)
		if sErr != nil {
			c.logger.Error("llm.fill.sanitize_failed", "req_id", rid, "error", sErr)
			return llm.Failed(fmt.Errorf("sanitize failed: %w", sErr))
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("llm.fill.schema_validation_failed", "req_id", rid, "error", vErr, "content", string(cleaned))
			return llm.Failed(fmt.Errorf("schema validation failed: %w", vErr))
		}
		c.logger.Warn("llm.fill.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		rawContent = cleaned
	}

	fields := map[string]string{}
	if err := json.Unmarshal(rawContent, &fields); err != nil {
		c.logger.Error("llm.fill.unmarshal_failed", "req_id", rid, "error", err)
		return llm.Failed(fmt.Errorf("unmarshal fields: %w", err))
	}

	c.logger.Info("llm.fill.ok",
		"req_id", rid,
		"filled", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.FillResult{Fields: fields, Status: llm.FillOK}
}
