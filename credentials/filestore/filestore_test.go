package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-learn-client/credentials"
	"github.com/jrsteele09/go-learn-client/credentials/filestore"
	apperrors "github.com/jrsteele09/go-learn-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nested", "credentials.json")
}

func TestStore_MissingKeyIsAbsent(t *testing.T) {
	s, err := filestore.Open(storePath(t))
	require.NoError(t, err)

	v, ok, err := s.Read(context.Background(), credentials.KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, v)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := filestore.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, credentials.KeyAccessToken, "T1"))
	require.NoError(t, s.Write(ctx, credentials.KeyUserInfo, `{"is_staff":false}`))
	require.NoError(t, s.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := filestore.Open(path)
	require.NoError(t, err)

	v, ok, err := reopened.Read(ctx, credentials.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T1", v)

	require.NoError(t, reopened.Remove(ctx, credentials.KeyAccessToken))
	require.NoError(t, reopened.Remove(ctx, credentials.KeyAccessToken))

	again, err := filestore.Open(path)
	require.NoError(t, err)
	_, ok, err = again.Read(ctx, credentials.KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	s, err := filestore.Open(path, filestore.WithSecret("correct horse"))
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, credentials.KeyAccessToken, "super-secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "super-secret-token")

	t.Run("same secret reads back", func(t *testing.T) {
		reopened, err := filestore.Open(path, filestore.WithSecret("correct horse"))
		require.NoError(t, err)
		v, ok, err := reopened.Read(ctx, credentials.KeyAccessToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "super-secret-token", v)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		_, err := filestore.Open(path, filestore.WithSecret("battery staple"))
		require.ErrorIs(t, err, apperrors.ErrWrongSecret)
	})

	t.Run("missing secret is rejected", func(t *testing.T) {
		_, err := filestore.Open(path)
		require.ErrorIs(t, err, apperrors.ErrWrongSecret)
	})
}

func TestStore_EncryptsExistingPlainStore(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	plain, err := filestore.Open(path)
	require.NoError(t, err)
	require.NoError(t, plain.Write(ctx, credentials.KeyRefreshToken, "R1"))

	sealed, err := filestore.Open(path, filestore.WithSecret("s3cret"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"R1"`)

	v, ok, err := sealed.Read(ctx, credentials.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "R1", v)
}

func TestStore_CorruptFile(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := filestore.Open(path)
	require.ErrorIs(t, err, apperrors.ErrCorruptStore)
}

func TestStore_Closed(t *testing.T) {
	s, err := filestore.Open(storePath(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Write(context.Background(), credentials.KeyAccessToken, "x")
	require.ErrorIs(t, err, apperrors.ErrStoreClosed)
}
