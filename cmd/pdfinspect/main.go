package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
	"github.com/joseph-ayodele/jurisprudence/internal/llm/openrouter"
	"github.com/joseph-ayodele/jurisprudence/internal/pdftext"
	"github.com/joseph-ayodele/jurisprudence/internal/pipeline"
)

type report struct {
	File     string            `json:"file"`
	Method   string            `json:"method"`
	Pages    int               `json:"pages"`
	Warnings []string          `json:"warnings,omitempty"`
	Fields   map[string]string `json:"fields"`
	Date     string            `json:"date_decision_parsed,omitempty"`
	Fill     string            `json:"fill_status"`
	Error    string            `json:"error,omitempty"`
}

func main() {
	useLLM := flag.Bool("llm", false, "fill missing fields with the configured LLM")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		logger.Error("usage", "cmd", "pdfinspect [-llm] <file.pdf>...")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	var filler llm.FieldFiller = llm.NoopFiller{}
	if *useLLM && cfg.AIEnabled() {
		filler = openrouter.NewClient(openrouter.Config{
			APIKey:      cfg.LLM.APIKey,
			URL:         cfg.LLM.APIURL,
			Model:       cfg.LLM.Model,
			FillTimeout: cfg.LLM.FillTimeout,
			LenientFill: true,
		}, logger)
	}

	pdf := pdftext.NewExtractor(pdftext.Config{
		Pdftotext:     cfg.Extract.PDFToTextBin,
		OCR:           cfg.Extract.OCR,
		TesseractLang: cfg.Extract.TesseractLang,
		TessdataDir:   cfg.Extract.TessdataDir,
	}, logger)
	proc := pipeline.NewProcessor(logger,
		pipeline.NewTextStage(extract.NewPDFAdapter(pdf, logger), logger),
		pipeline.NewFieldStage(extract.NewExtractor(extract.DefaultRules(), logger), filler, logger),
		nil, cfg.Extract.Timeout)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := false
	for _, path := range flag.Args() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Extract.Timeout+time.Minute)
		out, err := proc.Inspect(ctx, path)
		cancel()

		r := report{File: path}
		if out != nil {
			r.Method, r.Pages, r.Warnings = out.Text.Method, out.Text.Pages, out.Text.Warnings
			r.Fill = string(out.Fill.Status)
			if out.Result != nil {
				r.Fields = out.Result.Fields
				if out.Result.DecisionDate != nil {
					r.Date = out.Result.DecisionDate.Format("2006-01-02")
				}
			}
		}
		if err != nil {
			r.Error = err.Error()
			failed = true
		}
		if err := enc.Encode(r); err != nil {
			logger.Error("write report", "error", err)
			os.Exit(1)
		}
	}
	if failed {
		os.Exit(1)
	}
}
