package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"badminton-scoring/internal/config"
)

// Open builds the backend named by cfg.Backend. Network backends are
// wrapped so every call is bounded by cfg.Timeout.
func Open(ctx context.Context, cfg config.StoreConfig, logger logrus.FieldLogger) (KeyValueStore, error) {
	log := logger.WithField("backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendMemory, "":
		log.Warn("using in-memory store, data will not survive a restart")
		return NewMemoryStore(), nil

	case config.BackendFile:
		log.WithField("dir", cfg.DataDir).Info("using file store")
		return NewFileStore(cfg.DataDir)

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating directory for %s: %w", cfg.SQLitePath, err)
			}
		}
		log.WithField("path", cfg.SQLitePath).Info("using sqlite store")
		return NewSQLiteStore(cfg.SQLitePath)

	case config.BackendRedis:
		kv, err := NewRedisStore(ctx, cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, err
		}
		log.WithField("addrs", cfg.RedisAddrs).Info("using redis store")
		return withTimeout(kv, cfg.Timeout), nil

	case config.BackendMongo:
		kv, err := NewMongoStore(ctx, cfg.MongoDBConnStr, cfg.MongoDBDatabase, cfg.MongoDBCollection)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"database":   cfg.MongoDBDatabase,
			"collection": cfg.MongoDBCollection,
		}).Info("using mongo store")
		return withTimeout(kv, cfg.Timeout), nil

	case config.BackendFirestore:
		kv, err := NewFirestoreStore(ctx, cfg.GCPProjectID, cfg.FirestoreDatabase, cfg.FirestoreCollection, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"project":    cfg.GCPProjectID,
			"collection": cfg.FirestoreCollection,
		}).Info("using firestore store")
		return withTimeout(kv, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

type timeoutStore struct {
	KeyValueStore
	timeout time.Duration
}

func withTimeout(kv KeyValueStore, d time.Duration) KeyValueStore {
	if d <= 0 {
		return kv
	}
	return &timeoutStore{KeyValueStore: kv, timeout: d}
}

func (t *timeoutStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.KeyValueStore.Get(ctx, key)
}

func (t *timeoutStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.KeyValueStore.Set(ctx, key, value)
}

func (t *timeoutStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.KeyValueStore.Delete(ctx, key)
}
