package cli

import (
	"fmt"

	"github.com/aretw0/parkdash/internal/config"
	"github.com/aretw0/parkdash/pkg/adapters/file"
	"github.com/aretw0/parkdash/pkg/adapters/memory"
	"github.com/aretw0/parkdash/pkg/adapters/redis"
	"github.com/aretw0/parkdash/pkg/persistence/middleware"
	"github.com/aretw0/parkdash/pkg/ports"
)

// Credentials is the credential store selected by the configuration.
// Locker is nil unless the backend can serialise refreshes across processes.
type Credentials struct {
	Store  ports.CredentialStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenCredentials builds the configured credential store, wrapped in the
// encryption middleware when an encryption key is set.
func OpenCredentials(cfg config.StoreConfig) (*Credentials, error) {
	c := &Credentials{Close: func() error { return nil }}

	switch cfg.Backend {
	case config.BackendMemory:
		c.Store = memory.NewStore()
	case config.BackendFile:
		path := cfg.Path
		if path == "" {
			path = file.DefaultPath
		}
		c.Store = file.New(path)
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		c.Store = rs
		c.Locker = redis.NewLocker(rs.Client(), rs.Prefix())
		c.Close = rs.Close
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.EncryptionKey == "" {
		return c, nil
	}
	mw, err := encryption(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Store = middleware.Chain(c.Store, mw)
	return c, nil
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, raw := range cfg.FallbackKeys {
		if raw == "" {
			continue
		}
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(enc)
}
