package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/server"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.LoadConfig()
	cfg.LLM.APIKey = ""
	cfg.Security.EncryptionKey = ""
	cfg.Storage.UploadDir = t.TempDir()
	return cfg
}

func TestNewInMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), testConfig(t), Options{InMemory: true}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	gin.SetMode(gin.TestMode)
	r := server.NewRouter(a.ServerConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthcheck = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cases", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list cases = %d %s", w.Code, w.Body.String())
	}
}

func TestNewRequiresDSN(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.DSN = ""
	if _, err := New(context.Background(), cfg, Options{}, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected an error without DB_URL")
	}
}
