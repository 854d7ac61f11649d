package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/persistence/middleware"
	"github.com/aretw0/parkdash/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, cfg middleware.EncryptionConfig, next ports.CredentialStore) ports.CredentialStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware: %v", err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunCredentialStoreContract(t, encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, newCountingStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := newCountingStore()
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)

	ctx := context.Background()
	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	original := domain.Credentials{AccessToken: "at-secret", RefreshToken: "rt-secret", Role: "admin", UpdatedAt: updated}

	if err := secure.Save(ctx, "s1", original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlying.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.AccessToken != "" || stored.RefreshToken != "" || stored.Role != "" {
		t.Fatalf("Expected plaintext fields to be hidden, got %+v", stored)
	}
	if stored.Sealed == "" {
		t.Fatal("Expected sealed payload")
	}
	if !stored.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt should stay readable, got %v", stored.UpdatedAt)
	}

	loaded, err := secure.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.AccessToken != "at-secret" || loaded.RefreshToken != "rt-secret" || loaded.Role != "admin" {
		t.Errorf("Unexpected credentials after decrypt: %+v", loaded)
	}
	if loaded.Sealed != "" {
		t.Error("Sealed payload should not leak to callers")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := newCountingStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	old := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey}, underlying)
	if err := old.Save(ctx, "rotation", domain.Credentials{AccessToken: "old-key-token"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rotated := encrypted(t, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}}, underlying)
	loaded, err := rotated.Load(ctx, "rotation")
	if err != nil {
		t.Fatalf("Load with fallback key failed: %v", err)
	}
	if loaded.AccessToken != "old-key-token" {
		t.Errorf("Expected 'old-key-token', got %q", loaded.AccessToken)
	}

	// re-saving moves the record to the new key
	if err := rotated.Save(ctx, "rotation", loaded); err != nil {
		t.Fatalf("Re-save failed: %v", err)
	}
	newOnly := encrypted(t, middleware.EncryptionConfig{ActiveKey: newKey}, underlying)
	if _, err := newOnly.Load(ctx, "rotation"); err != nil {
		t.Errorf("Expected record sealed with the new key, got %v", err)
	}
}

func TestEncryptionMiddleware_WrongKey(t *testing.T) {
	underlying := newCountingStore()
	ctx := context.Background()

	a := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)
	if err := a.Save(ctx, "s", domain.Credentials{AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}

	b := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)
	if _, err := b.Load(ctx, "s"); err == nil {
		t.Error("Expected decryption failure with an unrelated key")
	}
}

func TestEncryptionMiddleware_RefusesPlaintext(t *testing.T) {
	underlying := newCountingStore()
	ctx := context.Background()
	_ = underlying.Save(ctx, "plain", domain.Credentials{AccessToken: "visible"})

	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)
	if _, err := secure.Load(ctx, "plain"); err != middleware.ErrNotSealed {
		t.Errorf("Expected ErrNotSealed, got %v", err)
	}
}

func TestNewEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")}); err == nil {
		t.Error("Expected error for short active key")
	}
	cfg := middleware.EncryptionConfig{ActiveKey: generateKey(t), FallbackKeys: [][]byte{[]byte("short")}}
	if _, err := middleware.NewEncryptionMiddleware(cfg); err == nil {
		t.Error("Expected error for short fallback key")
	}
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	for name, encoded := range map[string]string{
		"hex":    hex.EncodeToString(key),
		"base64": base64.StdEncoding.EncodeToString(key),
	} {
		got, err := middleware.ParseKey(encoded)
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
			continue
		}
		if string(got) != string(key) {
			t.Errorf("%s: key mismatch", name)
		}
	}

	if _, err := middleware.ParseKey("not-a-key"); err == nil {
		t.Error("Expected error for garbage key")
	}
}

func TestChain_Order(t *testing.T) {
	underlying := newCountingStore()
	key := generateKey(t)
	mw, _ := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})

	store := middleware.Chain(underlying, mw)
	if err := store.Save(context.Background(), "c", domain.Credentials{AccessToken: "t"}); err != nil {
		t.Fatal(err)
	}
	raw, err := underlying.Load(context.Background(), "c")
	if err != nil {
		t.Fatal(err)
	}
	if raw.Sealed == "" {
		t.Error("Chain should route saves through the middleware")
	}
	if n := underlying.saves.Load(); n != 1 {
		t.Errorf("Expected 1 save, got %d", n)
	}
}
