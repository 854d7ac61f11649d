package file_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/parkdash/pkg/adapters/file"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunCredentialStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	dir := filepath.Join(t.TempDir(), "sessions")
	store := file.New(dir)

	require.NoError(t, store.Save(context.Background(), "default", domain.Credentials{AccessToken: "secret"}))

	info, err := os.Stat(filepath.Join(dir, "default.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.ErrorIs(t, store.Save(ctx, id, domain.Credentials{}), domain.ErrInvalidSessionID, "id %q", id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileStore_ListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tmp-session", domain.Credentials{AccessToken: "a"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-other-123.json"), []byte("{}"), 0o600))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp-session"}, list)
}
