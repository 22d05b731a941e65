package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"badminton-scoring/internal/config"
)

func TestOpen(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Backend: config.BackendMemory}, false},
		{"file", config.StoreConfig{Backend: config.BackendFile, DataDir: filepath.Join(dir, "files")}, false},
		{"sqlite in new directory", config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "nested", "scores.db")}, false},
		{"unknown", config.StoreConfig{Backend: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := Open(context.Background(), tt.cfg, logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer kv.Close()

			ctx := context.Background()
			if err := kv.Set(ctx, KeyCurrentMatch, []byte(`{}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if _, err := kv.Get(ctx, KeyCurrentMatch); err != nil {
				t.Errorf("Get: %v", err)
			}
		})
	}
}

func TestTimeoutStoreBoundsCalls(t *testing.T) {
	var seen bool
	kv := withTimeout(deadlineCheck{MemoryStore: NewMemoryStore(), seen: &seen}, time.Second)
	kv.Set(context.Background(), "k", []byte("v"))
	if !seen {
		t.Error("call reached the backend without a deadline")
	}
	if withTimeout(NewMemoryStore(), 0) == nil {
		t.Error("zero timeout returned nil store")
	}
}

type deadlineCheck struct {
	*MemoryStore
	seen *bool
}

func (d deadlineCheck) Set(ctx context.Context, key string, value []byte) error {
	_, *d.seen = ctx.Deadline()
	return d.MemoryStore.Set(ctx, key, value)
}
