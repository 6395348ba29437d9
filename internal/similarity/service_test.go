package similarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
)

type staticCases []*entity.Case

func (s staticCases) All(context.Context) ([]*entity.Case, error) { return s, nil }

type fakeRanker struct {
	result llm.RankResult
	err    error
	deltas []string
	got    llm.RankRequest
}

func (f *fakeRanker) Rank(_ context.Context, req llm.RankRequest) (llm.RankResult, error) {
	f.got = req
	return f.result, f.err
}

func (f *fakeRanker) RankStream(_ context.Context, req llm.RankRequest, onDelta func(string)) (llm.RankResult, error) {
	f.got = req
	for _, d := range f.deltas {
		onDelta(d)
	}
	return f.result, f.err
}

type memHistory struct {
	rows []*entity.SearchHistory
}

func (m *memHistory) Record(_ context.Context, h *entity.SearchHistory) error {
	m.rows = append(m.rows, h)
	return nil
}

func (m *memHistory) CountByUser(_ context.Context, id int64) (int, error) {
	n := 0
	for _, r := range m.rows {
		if r.UserID == id {
			n++
		}
	}
	return n, nil
}

type prefixCipher struct{}

func (prefixCipher) Encrypt(s string) (string, error) { return "enc:" + s, nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func corpus(n int) staticCases {
	out := make(staticCases, n)
	for i := range out {
		out[i] = &entity.Case{ID: int64(i + 1), Ref: fmt.Sprint(100 + i), Titre: fmt.Sprintf("Cas %d", i)}
	}
	return out
}

func TestSearch(t *testing.T) {
	r := &fakeRanker{result: llm.RankResult{
		SimilarRefs:     []string{"102", "100", "999"},
		Reasons:         map[string]string{"100": "même thème"},
		Analysis:        "deux cas proches",
		Recommendations: "voir aussi",
		Model:           "m",
		Parsed:          true,
	}}
	h := &memHistory{}
	svc := NewService(corpus(60), r, h, prefixCipher{}, quietLogger())

	res, err := svc.Search(context.Background(), "  bail commercial ", 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var refs []string
	for _, c := range res.SimilarCases {
		refs = append(refs, c.Ref)
	}
	if !reflect.DeepEqual(refs, []string{"100", "102"}) {
		t.Errorf("matched = %v", refs)
	}
	if !res.Success || res.TotalCasesAnalyzed != 50 || res.TotalCasesInDB != 60 || res.ModelUsed != "m" {
		t.Errorf("result = %+v", res)
	}
	if len(r.got.Cases) != 50 || r.got.TotalCases != 60 || r.got.Query != "bail commercial" {
		t.Errorf("rank request: %d cases, total %d, query %q", len(r.got.Cases), r.got.TotalCases, r.got.Query)
	}
	if len(h.rows) != 1 || h.rows[0].Query != "enc:bail commercial" || h.rows[0].ResultsCount != 60 || h.rows[0].UserID != 4 {
		t.Errorf("history = %+v", h.rows)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewService(corpus(1), &fakeRanker{}, nil, nil, quietLogger())
	if _, err := svc.Search(context.Background(), "   ", 1); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestSearchDegrades(t *testing.T) {
	tests := []struct {
		name     string
		ranker   llm.SimilarityRanker
		wantErr  string
		analysis string
	}{
		{"no ranker", nil, "API OpenRouter non configurée", "Veuillez configurer OPENROUTER_API_KEY"},
		{"no key", &fakeRanker{err: llm.ErrNotConfigured}, "API OpenRouter non configurée", "Veuillez configurer OPENROUTER_API_KEY"},
		{"transport", &fakeRanker{err: errors.New("dial tcp: refused")}, "Erreur API: dial tcp: refused", "Impossible de contacter le service IA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(corpus(3), tt.ranker, &memHistory{}, prefixCipher{}, quietLogger())
			res, err := svc.Search(context.Background(), "q", 1)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Error != tt.wantErr || res.Analysis != tt.analysis {
				t.Errorf("result = %+v", res)
			}
			if res.SimilarCases == nil || len(res.SimilarCases) != 0 {
				t.Errorf("similar_cases = %v, want empty list", res.SimilarCases)
			}
		})
	}
}

func TestSearchUnparsedReply(t *testing.T) {
	r := &fakeRanker{result: llm.RankResult{Analysis: "texte libre", Reasons: map[string]string{}}}
	svc := NewService(corpus(2), r, nil, nil, quietLogger())
	res, err := svc.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Analysis != "texte libre" || len(res.SimilarCases) != 0 || res.SimilarityReasons != nil {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchStream(t *testing.T) {
	r := &fakeRanker{
		deltas: []string{`{"similar_cases": [`, `"101"]}`},
		result: llm.RankResult{SimilarRefs: []string{"101"}, Parsed: true},
	}
	svc := NewService(corpus(3), r, &memHistory{}, prefixCipher{}, quietLogger())

	var events []Event
	if err := svc.SearchStream(context.Background(), "q", 1, func(e Event) { events = append(events, e) }); err != nil {
		t.Fatal(err)
	}
	var types []string
	var text strings.Builder
	for _, e := range events {
		types = append(types, e.Type)
		text.WriteString(e.Delta)
	}
	want := []string{EventProgress, EventProgress, EventProgress, EventDelta, EventDelta, EventProgress, EventResult}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("types = %v, want %v", types, want)
	}
	if text.String() != `{"similar_cases": ["101"]}` {
		t.Errorf("deltas = %q", text.String())
	}
	last := events[len(events)-1].Result
	if len(last.SimilarCases) != 1 || last.SimilarCases[0].Ref != "101" {
		t.Errorf("result = %+v", last)
	}
	if events[1].Message != "3 cas indexés sur 3 au total" {
		t.Errorf("progress = %q", events[1].Message)
	}
}

func TestSearchStreamErrors(t *testing.T) {
	svc := NewService(corpus(1), &fakeRanker{err: errors.New("boom")}, nil, nil, quietLogger())
	if err := svc.SearchStream(context.Background(), "", 1, nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty query err = %v", err)
	}
	var last Event
	if err := svc.SearchStream(context.Background(), "q", 1, func(e Event) { last = e }); err != nil {
		t.Fatal(err)
	}
	if last.Type != EventError || last.Message != "Erreur API: boom" {
		t.Errorf("last event = %+v", last)
	}

	svc = NewService(corpus(1), nil, nil, nil, quietLogger())
	if err := svc.SearchStream(context.Background(), "q", 1, func(e Event) { last = e }); err != nil {
		t.Fatal(err)
	}
	if last.Type != EventError || last.Message != "API OpenRouter non configurée" {
		t.Errorf("unconfigured event = %+v", last)
	}
}

func TestDigest(t *testing.T) {
	c := &entity.Case{Ref: "1", Titre: "T", ResumeFrancais: "fr"}
	d := Digest(c)
	if d.Ref != "1" || d.Titre != "T" || d.ResumeFrancais != "fr" || d.DateDecision != "" {
		t.Errorf("digest = %+v", d)
	}
}
