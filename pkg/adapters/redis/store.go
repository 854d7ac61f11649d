package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store and the locker.
const DefaultPrefix = "parkdash:session:"

// farFuture is the index score of sessions that never expire (2100-01-01).
const farFuture = 4102444800

const (
	fieldAccess  = "access"
	fieldRefresh = "refresh"
	fieldRole    = "role"
	fieldSealed  = "sealed"
	fieldUpdated = "updated"
)

// Store implements ports.CredentialStore using Redis.
// Each session is a hash; a sorted set indexes the sessions by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Store)

// WithTTL sets the expiration for sessions. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save replaces the credentials of a session.
func (s *Store) Save(ctx context.Context, sessionID string, creds domain.Credentials) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return err
	}
	key := s.key(sessionID)

	score := float64(farFuture)
	if s.ttl > 0 {
		score = float64(s.now().Add(s.ttl).Unix())
	}

	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			fieldAccess:  creds.AccessToken,
			fieldRefresh: creds.RefreshToken,
			fieldRole:    creds.Role,
			fieldSealed:  creds.Sealed,
			fieldUpdated: creds.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the credentials of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (domain.Credentials, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return domain.Credentials{}, err
	}
	fields, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Credentials{}, domain.ErrSessionNotFound
		}
		return domain.Credentials{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return domain.Credentials{}, domain.ErrSessionNotFound
	}

	creds := domain.Credentials{
		AccessToken:  fields[fieldAccess],
		RefreshToken: fields[fieldRefresh],
		Role:         fields[fieldRole],
		Sealed:       fields[fieldSealed],
	}
	if raw := fields[fieldUpdated]; raw != "" {
		updated, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("corrupt %s field: %w", fieldUpdated, err)
		}
		creds.UpdatedAt = updated
	}
	return creds, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired entries from the index and returns the rest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	max := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+max).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
