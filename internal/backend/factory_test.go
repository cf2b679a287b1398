package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"planner/internal/config"
	"planner/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:              "sqlite",
		SQLiteDBPath:             "db.sqlite",
		AMQPURL:                  "amqp://localhost",
		AMQPExchange:             "planner",
		AMQPQueue:                "sync_entries",
		GoogleServiceAccountJSON: "{}",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "db.sqlite" || cfg.AMQPQueue != "sync_entries" {
		t.Fatalf("converted = %+v", cfg)
	}
	if !cfg.HasRemote() {
		t.Error("inline credentials should enable the remote")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, ""},
		{"unknown", Config{Type: "redis"}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "database path"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, "exchange and queue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(quietLogger())

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "planner.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			if res.AMQP != nil || res.Remote != nil {
				t.Fatalf("unexpected sync plumbing: %+v", res)
			}
			if len(res.LedgerOptions()) != 0 {
				t.Fatal("no options expected without broker or remote")
			}

			ledger := services.NewLedgerService(res.Store, res.LedgerOptions()...)
			if ledger.RemoteEnabled() {
				t.Fatal("remote must be disabled")
			}
			cats, err := ledger.ListCategories(ctx)
			if err != nil || len(cats.Income) == 0 {
				t.Fatalf("categories = %+v, %v", cats, err)
			}
			if err := res.Cleanup(); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		})
	}
}

func TestCreateBackend_Errors(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	if _, err := f.CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	_, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, GoogleServiceAccountJSON: "invalid-json"})
	if err == nil || !strings.Contains(err.Error(), "Google Sheets client") {
		t.Fatalf("expected remote init error, got %v", err)
	}

	_, err = f.CreateBackend(ctx, Config{Type: MemoryBackend, GoogleServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil || !strings.Contains(err.Error(), "Google credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}
