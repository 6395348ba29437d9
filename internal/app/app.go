// Package app wires the services shared by every binary.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/jurisprudence/internal/batch"
	"github.com/joseph-ayodele/jurisprudence/internal/cases"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/encryption"
	"github.com/joseph-ayodele/jurisprudence/internal/export"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
	"github.com/joseph-ayodele/jurisprudence/internal/llm"
	"github.com/joseph-ayodele/jurisprudence/internal/llm/openrouter"
	"github.com/joseph-ayodele/jurisprudence/internal/pdftext"
	"github.com/joseph-ayodele/jurisprudence/internal/pipeline"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
	"github.com/joseph-ayodele/jurisprudence/internal/server"
	"github.com/joseph-ayodele/jurisprudence/internal/similarity"
)

type Options struct {
	// InMemory uses a private SQLite database instead of DB_URL.
	InMemory bool
	// SQLiteDSN, when set with InMemory, names a SQLite file to use instead.
	SQLiteDSN string
}

// App holds the wired services. Close releases the database.
type App struct {
	Config    *common.Config
	DB        *repository.DB
	Cases     *cases.Service
	Processor *pipeline.Processor
	Batch     *batch.Orchestrator
	Search    *similarity.Service
	Sheets    *export.Service

	logger *slog.Logger
}

// New opens the database, applies migrations and builds every service.
func New(ctx context.Context, cfg *common.Config, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := openDB(ctx, cfg, opts, logger)
	if err != nil {
		return nil, err
	}
	a, err := build(ctx, cfg, db, opts, logger)
	if err != nil {
		db.Close(logger)
		return nil, err
	}
	return a, nil
}

func openDB(ctx context.Context, cfg *common.Config, opts Options, logger *slog.Logger) (*repository.DB, error) {
	if opts.InMemory {
		return repository.OpenSQLite(ctx, opts.SQLiteDSN, logger)
	}
	if cfg.Database.DSN == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "DB_URL is required", common.ErrInvalidInput)
	}
	return repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
}

func build(ctx context.Context, cfg *common.Config, db *repository.DB, opts Options, logger *slog.Logger) (*App, error) {
	if err := db.HealthCheck(ctx, cfg.Database.DialTimeout, logger); err != nil {
		return nil, common.WrapError(err, "database health")
	}
	if err := db.Migrate(ctx, logger); err != nil {
		return nil, common.WrapError(err, "migrate")
	}

	key := cfg.Security.EncryptionKey
	if key == "" {
		if !opts.InMemory {
			return nil, common.NewAppError("CONFIG_ERROR", "ENCRYPTION_KEY is required", common.ErrInvalidInput)
		}
		// throwaway database, throwaway key
		generated, err := encryption.GenerateKey()
		if err != nil {
			return nil, err
		}
		key = generated
		logger.Warn("app.encryption.ephemeral_key")
	}
	cipher, err := encryption.NewService(key)
	if err != nil {
		return nil, err
	}

	caseRepo := repository.NewCaseRepository(db, logger)
	batchRepo := repository.NewBatchRepository(db, logger)
	searchRepo := repository.NewSearchHistoryRepository(db, logger)

	builder := cases.NewBuilder(caseRepo, cipher, logger)
	caseSvc := cases.NewService(caseRepo, searchRepo, builder, cipher, logger)

	client := openrouter.NewClient(openrouter.Config{
		APIKey:      cfg.LLM.APIKey,
		URL:         cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		FillTimeout: cfg.LLM.FillTimeout,
		LenientFill: true,
	}, logger)
	var filler llm.FieldFiller = llm.NoopFiller{}
	var ranker llm.SimilarityRanker
	if cfg.AIEnabled() {
		ranker = client
		if cfg.LLM.FillEnabled {
			filler = client
		}
		logger.Info("app.llm.enabled", "model", client.Model(), "fill", cfg.LLM.FillEnabled)
	} else {
		logger.Warn("app.llm.disabled", "reason", "OPENROUTER_API_KEY not set")
	}

	pdf := pdftext.NewExtractor(pdftext.Config{
		Pdftotext:     cfg.Extract.PDFToTextBin,
		OCR:           cfg.Extract.OCR,
		TesseractLang: cfg.Extract.TesseractLang,
		TessdataDir:   cfg.Extract.TessdataDir,
	}, logger)
	text := pipeline.NewTextStage(extract.NewPDFAdapter(pdf, logger), logger)
	fields := pipeline.NewFieldStage(extract.NewExtractor(extract.DefaultRules(), logger), filler, logger)
	proc := pipeline.NewProcessor(logger, text, fields, builder, cfg.Extract.Timeout)

	store := batch.NewStore(cfg.Storage.UploadDir, logger)
	orch := batch.NewOrchestrator(store, batchRepo, proc, batch.Config{
		MaxFiles:      cfg.Batch.MaxFiles,
		DefaultWindow: cfg.Batch.DefaultWindow,
		LeaseTTL:      cfg.Batch.LeaseTTL,
	}, logger)

	return &App{
		Config:    cfg,
		DB:        db,
		Cases:     caseSvc,
		Processor: proc,
		Batch:     orch,
		Search:    similarity.NewService(caseSvc, ranker, searchRepo, cipher, logger),
		Sheets:    export.NewService(caseRepo, builder, logger),
		logger:    logger,
	}, nil
}

// ServerConfig is the HTTP configuration for this app.
func (a *App) ServerConfig() server.Config {
	return server.Config{
		Cases:  a.Cases,
		Batch:  a.Batch,
		Search: a.Search,
		Sheets: a.Sheets,
		Health: func(ctx context.Context) error {
			return a.DB.HealthCheck(ctx, a.Config.Database.DialTimeout, a.logger)
		},
		CORSOrigins:    a.Config.Server.CORSOrigins,
		MaxUploadBytes: a.Config.Server.MaxUploadBytes,
		Logger:         a.logger,
	}
}

func (a *App) Close() {
	a.DB.Close(a.logger)
}
