package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
)

// CaseSource yields the decrypted corpus; *cases.Service implements it.
type CaseSource interface {
	All(ctx context.Context) ([]*entity.Case, error)
}

type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// Result is the answer to one similarity search. On failure Error is set,
// SimilarCases is empty and Analysis explains what happened.
type Result struct {
	Success            bool              `json:"success,omitempty"`
	Error              string            `json:"error,omitempty"`
	SimilarCases       []*entity.Case    `json:"similar_cases"`
	SimilarityReasons  map[string]string `json:"similarity_reasons,omitempty"`
	Analysis           string            `json:"analysis"`
	Recommendations    string            `json:"recommendations,omitempty"`
	TotalCasesAnalyzed int               `json:"total_cases_analyzed,omitempty"`
	TotalCasesInDB     int               `json:"total_cases_in_db,omitempty"`
	ModelUsed          string            `json:"model_used,omitempty"`
}

// Event is one step of a streamed search.
type Event struct {
	Type    string  `json:"type"` // progress | delta | result | error
	Message string  `json:"message,omitempty"`
	Delta   string  `json:"delta,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

const (
	EventProgress = "progress"
	EventDelta    = "delta"
	EventResult   = "result"
	EventError    = "error"
)

type Service struct {
	cases   CaseSource
	ranker  llm.SimilarityRanker
	history repository.SearchHistoryRepository
	cipher  Encrypter
	logger  *slog.Logger
}

// NewService wires the search. A nil ranker behaves as an unconfigured one.
func NewService(cases CaseSource, ranker llm.SimilarityRanker, history repository.SearchHistoryRepository, cipher Encrypter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cases: cases, ranker: ranker, history: history, cipher: cipher, logger: logger}
}

type search struct {
	query  string
	corpus []*entity.Case
	req    llm.RankRequest
}

// begin validates the query, loads the corpus and records the search.
func (s *Service) begin(ctx context.Context, query string, actor int64) (*search, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.InvalidInputf("Requête vide")
	}
	corpus, err := s.cases.All(ctx)
	if err != nil {
		return nil, err
	}
	s.record(ctx, query, actor, len(corpus))

	sample := corpus
	if len(sample) > llm.MaxRankCases {
		sample = sample[:llm.MaxRankCases]
	}
	digests := make([]llm.CaseDigest, 0, len(sample))
	for _, c := range sample {
		digests = append(digests, Digest(c))
	}
	return &search{
		query:  query,
		corpus: corpus,
		req:    llm.RankRequest{Query: query, Cases: digests, TotalCases: len(corpus)},
	}, nil
}

// record stores the encrypted query. Failures are logged only; the search
// itself still runs.
func (s *Service) record(ctx context.Context, query string, actor int64, n int) {
	if s.history == nil || s.cipher == nil {
		return
	}
	tok, err := s.cipher.Encrypt(query)
	if err != nil {
		s.logger.Error("search.history.encrypt_failed", "error", err)
		return
	}
	if err := s.history.Record(ctx, &entity.SearchHistory{UserID: actor, Query: tok, ResultsCount: n}); err != nil {
		s.logger.Error("search.history.record_failed", "user_id", actor, "error", err)
	}
}

// Search ranks the corpus against query. Only an empty query or a storage
// failure is returned as an error; provider problems become a Result with
// Error set.
func (s *Service) Search(ctx context.Context, query string, actor int64) (*Result, error) {
	sr, err := s.begin(ctx, query, actor)
	if err != nil {
		return nil, err
	}
	if s.ranker == nil {
		return notConfigured(), nil
	}
	start := time.Now()
	rr, err := s.ranker.Rank(ctx, sr.req)
	if err != nil {
		return s.failed(err), nil
	}
	res := s.assemble(sr, rr)
	s.logger.Info("search.ok",
		"corpus", len(sr.corpus),
		"sent", len(sr.req.Cases),
		"matched", len(res.SimilarCases),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// SearchStream is Search reported as events. An error is returned only
// when the search could not start, before any event was emitted.
func (s *Service) SearchStream(ctx context.Context, query string, actor int64, emit func(Event)) error {
	emit = guardEmit(emit)
	if strings.TrimSpace(query) == "" {
		return common.InvalidInputf("Requête vide")
	}
	if s.ranker == nil {
		emit(Event{Type: EventError, Message: "API OpenRouter non configurée"})
		return nil
	}

	emit(Event{Type: EventProgress, Message: "Indexation des cas de jurisprudence..."})
	sr, err := s.begin(ctx, query, actor)
	if err != nil {
		emit(Event{Type: EventError, Message: common.UserMessage(err)})
		return nil
	}
	emit(Event{Type: EventProgress, Message: fmt.Sprintf("%d cas indexés sur %d au total", len(sr.req.Cases), len(sr.corpus))})
	emit(Event{Type: EventProgress, Message: "L'IA analyse les cas..."})

	rr, err := s.ranker.RankStream(ctx, sr.req, func(d string) {
		emit(Event{Type: EventDelta, Delta: d})
	})
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			emit(Event{Type: EventError, Message: "API OpenRouter non configurée"})
			return nil
		}
		s.logger.Warn("search.stream.failed", "error", err)
		emit(Event{Type: EventError, Message: "Erreur API: " + err.Error()})
		return nil
	}
	emit(Event{Type: EventProgress, Message: "Traitement de la réponse de l'IA..."})
	emit(Event{Type: EventResult, Result: s.assemble(sr, rr)})
	return nil
}

func guardEmit(emit func(Event)) func(Event) {
	if emit == nil {
		return func(Event) {}
	}
	return emit
}

func (s *Service) assemble(sr *search, rr llm.RankResult) *Result {
	res := &Result{
		Success:            true,
		SimilarCases:       Match(sr.corpus, rr.SimilarRefs),
		SimilarityReasons:  rr.Reasons,
		Analysis:           rr.Analysis,
		Recommendations:    rr.Recommendations,
		TotalCasesAnalyzed: len(sr.req.Cases),
		TotalCasesInDB:     len(sr.corpus),
		ModelUsed:          rr.Model,
	}
	if !rr.Parsed {
		res.SimilarityReasons = nil
	}
	return res
}

func (s *Service) failed(err error) *Result {
	if errors.Is(err, llm.ErrNotConfigured) {
		return notConfigured()
	}
	s.logger.Warn("search.failed", "error", err)
	return &Result{
		Error:        "Erreur API: " + err.Error(),
		SimilarCases: []*entity.Case{},
		Analysis:     "Impossible de contacter le service IA",
	}
}

func notConfigured() *Result {
	return &Result{
		Error:        "API OpenRouter non configurée",
		SimilarCases: []*entity.Case{},
		Analysis:     "Veuillez configurer OPENROUTER_API_KEY",
	}
}

// Match returns the corpus cases whose ref was named, in corpus order.
// Refs the corpus does not hold are ignored.
func Match(corpus []*entity.Case, refs []string) []*entity.Case {
	want := make(map[string]bool, len(refs))
	for _, r := range refs {
		want[strings.TrimSpace(r)] = true
	}
	out := []*entity.Case{}
	for _, c := range corpus {
		if want[c.Ref] {
			out = append(out, c)
		}
	}
	return out
}

// Digest reduces a case to what the ranking prompt shows.
func Digest(c *entity.Case) llm.CaseDigest {
	return llm.CaseDigest{
		Ref:            c.Ref,
		Titre:          c.Titre,
		Juridiction:    c.Juridiction,
		DateDecision:   c.DateString(),
		Theme:          c.Theme,
		MotsCles:       c.MotsCles,
		ResumeFrancais: c.ResumeFrancais,
		ResumeArabe:    c.ResumeArabe,
	}
}
