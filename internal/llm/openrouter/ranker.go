package openrouter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
)

var _ llm.SimilarityRanker = (*Client)(nil)

// Rank sends the similarity prompt and parses the model's JSON answer.
func (c *Client) Rank(ctx context.Context, req llm.RankRequest) (llm.RankResult, error) {
	return c.rank(ctx, req, nil, false)
}

// RankStream is Rank over a streamed completion.
func (c *Client) RankStream(ctx context.Context, req llm.RankRequest, onDelta func(string)) (llm.RankResult, error) {
	return c.rank(ctx, req, onDelta, true)
}

func (c *Client) rank(ctx context.Context, req llm.RankRequest, onDelta func(string), stream bool) (llm.RankResult, error) {
	if !c.Enabled() {
		return llm.RankResult{}, ErrNotConfigured
	}

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("llm.rank.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"cases", len(req.Cases),
		"total_cases", req.TotalCases,
		"stream", stream,
	)

	msgs := []message{{Role: "user", Content: llm.BuildRankPrompt(req)}}
	var (
		content string
		err     error
	)
	if stream {
		content, err = c.stream(ctx, msgs, c.cfg.MaxTokens, onDelta)
	} else {
		content, err = c.complete(ctx, msgs, c.cfg.MaxTokens)
	}
	if err != nil {
		c.logger.Error("llm.rank.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.RankResult{}, err
	}

	res := ParseRankReply(content)
	res.Model = c.cfg.Model
	if !res.Parsed {
		c.logger.Warn("llm.rank.unstructured_reply", "req_id", rid, "content_len", len(content))
	}
	c.logger.Info("llm.rank.ok",
		"req_id", rid,
		"similar", len(res.SimilarRefs),
		"parsed", res.Parsed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ParseRankReply turns a model reply into a RankResult. A reply without a
// usable JSON object becomes an unparsed result carrying the raw text.
func ParseRankReply(content string) llm.RankResult {
	raw := llm.RankResult{Analysis: content, Reasons: map[string]string{}}

	doc, ok := llm.ExtractJSONObject(content)
	if !ok {
		return raw
	}
	norm, err := llm.NormalizeRankReply([]byte(doc))
	if err != nil {
		return raw
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildRankJSONSchema(), norm); err != nil {
		return raw
	}

	var reply struct {
		SimilarCases      []string          `json:"similar_cases"`
		SimilarityReasons map[string]string `json:"similarity_reasons"`
		Analysis          string            `json:"analysis"`
		Recommendations   string            `json:"recommendations"`
	}
	if err := json.Unmarshal(norm, &reply); err != nil {
		return raw
	}
	return llm.RankResult{
		SimilarRefs:     reply.SimilarCases,
		Reasons:         reply.SimilarityReasons,
		Analysis:        reply.Analysis,
		Recommendations: reply.Recommendations,
		Parsed:          true,
	}
}
