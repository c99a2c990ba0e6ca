package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/wellgate/wellgate/bootstrap"
	"github.com/wellgate/wellgate/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: config.DatabaseConfig{DSN: filepath.Join(t.TempDir(), "test.db")},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func TestBootstrap_Integration(t *testing.T) {
	app, err := bootstrap.New(testConfig(t))
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	if app.DB == nil {
		t.Error("DB should not be nil")
	}
	if app.HTTPServer == nil {
		t.Error("HTTPServer should not be nil")
	}
	if app.Config == nil {
		t.Error("Config holder should not be nil")
	}
	if app.HTTPServer.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %s, want 127.0.0.1:8080", app.HTTPServer.Addr)
	}
}

func TestBootstrap_DatabaseMigration(t *testing.T) {
	app, err := bootstrap.New(testConfig(t))
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	if err := app.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM organizations").Scan(&count); err != nil {
		t.Errorf("query organizations table: %v", err)
	}
	if err := app.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM checkins").Scan(&count); err != nil {
		t.Errorf("query checkins table: %v", err)
	}
}

func TestBootstrap_RouterServes(t *testing.T) {
	app, err := bootstrap.New(testConfig(t))
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	app.HTTPServer.Handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestBootstrap_MetricsEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true

	app, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	if app.Metrics == nil {
		t.Error("Metrics should be initialized when enabled")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	app.HTTPServer.Handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}
