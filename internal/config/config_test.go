package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.Store.Timeout != 5*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.ShutdownTimeout, cfg.Store.Timeout)
	}
}

func TestLoadStoreConfigPrefix(t *testing.T) {
	t.Setenv("DEST_STORE_BACKEND", "Redis")
	t.Setenv("DEST_REDIS_ADDRS", "a:1, b:2 ,")
	t.Setenv("DEST_REDIS_DB", "3")
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := LoadStoreConfig("DEST_")
	if err != nil {
		t.Fatalf("LoadStoreConfig: %v", err)
	}
	if cfg.Backend != BackendRedis {
		t.Errorf("Backend = %q, want redis", cfg.Backend)
	}
	if strings.Join(cfg.RedisAddrs, "|") != "a:1|b:2" {
		t.Errorf("RedisAddrs = %v", cfg.RedisAddrs)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d", cfg.RedisDB)
	}
}

func TestLoadStoreConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "postgres"}, "unknown STORE_BACKEND"},
		{"firestore needs project", map[string]string{"STORE_BACKEND": "firestore"}, "GCP_PROJECT_ID"},
		{"bad redis db", map[string]string{"REDIS_DB": "two"}, "invalid integer format for REDIS_DB"},
		{"bad timeout", map[string]string{"STORE_TIMEOUT": "soon"}, "invalid duration format for STORE_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadStoreConfig("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadServerConfigRejectsLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	if _, err := LoadServerConfig(); err == nil {
		t.Error("expected an error for LOG_FORMAT=xml")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "text", false},
		{"debug", "json", false},
		{"warning", "", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			}
			if err == nil && logger.GetLevel().String() != tt.level {
				t.Errorf("level = %s, want %s", logger.GetLevel(), tt.level)
			}
		})
	}
}
