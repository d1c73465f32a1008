package dbmigrate

import (
	"strings"
	"testing"

	"github.com/helix/epe-server/internal/config"
)

func TestSelectTarget(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		wantURL     string
		wantSource  string
		wantWarning bool
	}{
		{
			name: "direct wins",
			cfg: config.Config{
				DatabaseURLDirect: "postgres://direct",
				DatabaseURLRaw:    "postgres://url",
				DatabaseURLPooled: "postgres://pooled",
			},
			wantURL:    "postgres://direct",
			wantSource: "DATABASE_URL_DIRECT",
		},
		{
			name:       "fallback to DATABASE_URL",
			cfg:        config.Config{DatabaseURLRaw: "postgres://url", DatabaseURLPooled: "postgres://pooled"},
			wantURL:    "postgres://url",
			wantSource: "DATABASE_URL",
		},
		{
			name:        "pooled warns",
			cfg:         config.Config{DatabaseURLPooled: "postgres://pooled"},
			wantURL:     "postgres://pooled",
			wantSource:  "DATABASE_URL_POOLED",
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := SelectTarget(&tt.cfg, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target.URL != tt.wantURL || target.Source != tt.wantSource {
				t.Fatalf("expected %s from %s, got %+v", tt.wantURL, tt.wantSource, target)
			}
			if (target.Warning != "") != tt.wantWarning {
				t.Fatalf("unexpected warning state: %q", target.Warning)
			}
		})
	}
}

func TestSelectTarget_RequireDirect(t *testing.T) {
	cfg := &config.Config{DatabaseURLRaw: "postgres://url", DatabaseURLPooled: "postgres://pooled"}
	if _, err := SelectTarget(cfg, true); err == nil {
		t.Fatal("expected error when direct is required but missing")
	}
}

func TestSelectTarget_SQLiteOnly(t *testing.T) {
	_, err := SelectTarget(&config.Config{SQLitePath: "/tmp/epe.db"}, false)
	if err == nil || !strings.Contains(err.Error(), "SQLITE_PATH") {
		t.Fatalf("expected sqlite explanation, got %v", err)
	}
}
