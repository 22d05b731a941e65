package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendRedis     = "redis"
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string
	Timeout time.Duration // per-call timeout for network backends

	DataDir    string // file backend
	SQLitePath string

	RedisAddrs     []string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	MongoDBConnStr    string
	MongoDBDatabase   string
	MongoDBCollection string

	GCPProjectID        string
	FirestoreDatabase   string
	FirestoreCollection string
	CredentialsFile     string
}

// ServerConfig holds everything cmd/server needs.
type ServerConfig struct {
	ListenAddr      string
	CORSOrigin      string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string // "text" or "json"
	Store           StoreConfig
}

// LoadServerConfig reads the server configuration from the environment.
func LoadServerConfig() (*ServerConfig, error) {
	store, err := LoadStoreConfig("")
	if err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		ListenAddr: getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),
		Store:      *store,
	}
	cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json (got %q)", cfg.LogFormat)
	}
	return cfg, nil
}

// LoadStoreConfig reads the backend settings. Every variable name is
// prefixed with prefix, so a second backend (e.g. a migration target) can
// be configured with "DEST_".
func LoadStoreConfig(prefix string) (*StoreConfig, error) {
	env := func(key, def string) string { return getEnv(prefix+key, def) }

	cfg := &StoreConfig{
		Backend:             strings.ToLower(env("STORE_BACKEND", BackendMemory)),
		DataDir:             env("DATA_DIR", "./data"),
		SQLitePath:          env("SQLITE_PATH", "./data/scores.db"),
		RedisPassword:       env("REDIS_PASSWORD", ""),
		RedisKeyPrefix:      env("REDIS_KEY_PREFIX", "badminton:"),
		MongoDBConnStr:      env("MONGODB_CONN_STR", "mongodb://localhost:27017"),
		MongoDBDatabase:     env("MONGODB_DATABASE", "badminton"),
		MongoDBCollection:   env("MONGODB_COLLECTION", "kv"),
		GCPProjectID:        env("GCP_PROJECT_ID", ""),
		FirestoreDatabase:   env("FIRESTORE_DATABASE", ""),
		FirestoreCollection: env("FIRESTORE_COLLECTION", "badminton"),
		CredentialsFile:     env("GOOGLE_APPLICATION_CREDENTIALS_FILE", ""),
	}

	for _, addr := range strings.Split(env("REDIS_ADDRS", "localhost:6379"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			cfg.RedisAddrs = append(cfg.RedisAddrs, addr)
		}
	}

	var err error
	cfg.RedisDB, err = getInt(prefix+"REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = getDuration(prefix+"STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendMongo:
	case BackendFirestore:
		if cfg.GCPProjectID == "" {
			return nil, fmt.Errorf("%sGCP_PROJECT_ID is required for the firestore backend", prefix)
		}
	default:
		return nil, fmt.Errorf("unknown %sSTORE_BACKEND %q", prefix, cfg.Backend)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}
