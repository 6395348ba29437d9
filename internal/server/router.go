package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jurisprudence/internal/batch"
	"github.com/joseph-ayodele/jurisprudence/internal/cases"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/export"
	"github.com/joseph-ayodele/jurisprudence/internal/pipeline"
	"github.com/joseph-ayodele/jurisprudence/internal/similarity"
)

// CaseAPI is the case surface; *cases.Service implements it.
type CaseAPI interface {
	List(ctx context.Context, page, perPage int) (*cases.Page, error)
	Get(ctx context.Context, id int64) (*entity.Case, error)
	Create(ctx context.Context, in cases.Input, actor int64) (*entity.Case, error)
	Update(ctx context.Context, id int64, in cases.Input) (*entity.Case, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int, error)
	DeleteSelected(ctx context.Context, ids []int64) (int, error)
	Stats(ctx context.Context, actor int64) (entity.CaseStats, error)
	UserStats(ctx context.Context, actor int64) (cases.UserStats, error)
}

// BatchAPI is implemented by *batch.Orchestrator.
type BatchAPI interface {
	Upload(ctx context.Context, files []batch.UploadFile, actor int64) (*batch.UploadResult, error)
	Process(ctx context.Context, req batch.ProcessRequest, actor int64) (*batch.ProcessResult, error)
	Status(ctx context.Context, batchID string) (*batch.StatusResult, error)
	Cleanup(ctx context.Context, batchID string) error
	ImportSingle(ctx context.Context, f batch.UploadFile, actor int64) (*pipeline.Outcome, error)
}

// SearchAPI is implemented by *similarity.Service.
type SearchAPI interface {
	Search(ctx context.Context, query string, actor int64) (*similarity.Result, error)
	SearchStream(ctx context.Context, query string, actor int64, emit func(similarity.Event)) error
}

// SpreadsheetAPI is implemented by *export.Service.
type SpreadsheetAPI interface {
	ExportCasesXLSX(ctx context.Context) ([]byte, error)
	ImportCases(ctx context.Context, filename string, r io.Reader, actor int64) (*export.ImportReport, error)
}

type Config struct {
	Cases  CaseAPI
	Batch  BatchAPI
	Search SearchAPI
	Sheets SpreadsheetAPI
	// Health reports whether the service can serve traffic; nil means always.
	Health func(ctx context.Context) error

	CORSOrigins    []string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type handler struct {
	cfg    Config
	logger *slog.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 512 << 20
	}
	h := &handler{cfg: cfg, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(RequestContext())
	r.Use(CORS(cfg.CORSOrigins))

	r.GET("/healthcheck", h.healthcheck)

	api := r.Group("/api")
	{
		api.POST("/batch/upload", h.uploadBatch)
		api.POST("/batch/process", h.processBatch)
		api.GET("/batch/status/:batch_id", h.batchStatus)
		api.DELETE("/batch/cleanup/:batch_id", h.cleanupBatch)
		api.POST("/import/single-pdf", h.importSingle)

		api.GET("/cases", h.listCases)
		api.GET("/cases/stats", h.caseStats)
		api.GET("/cases/export", h.exportCases)
		api.POST("/cases/import", h.importCases)
		api.POST("/cases", h.createCase)
		api.DELETE("/cases/delete-all", h.deleteAllCases)
		api.POST("/cases/delete-selected", h.deleteSelectedCases)
		api.GET("/cases/:id", h.getCase)
		api.PUT("/cases/:id", h.updateCase)
		api.DELETE("/cases/:id", h.deleteCase)

		api.GET("/stats", h.userStats)
		api.POST("/search", h.search)
		api.POST("/search/stream", h.searchStream)
	}
	return r
}

func (h *handler) healthcheck(c *gin.Context) {
	if h.cfg.Health != nil {
		if err := h.cfg.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Server owns the HTTP listener around the router.
type Server struct {
	Engine *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

func NewServer(addr string, cfg Config) *Server {
	engine := NewRouter(cfg)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called. It returns nil on a clean stop.
func (s *Server) Start() error {
	s.logger.Info("http.listen", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
