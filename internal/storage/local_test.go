package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()

	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGetRoundtrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "proofs/abc/receipt.jpg", strings.NewReader("proof bytes"), PutOptions{})
	require.NoError(t, err)

	body, info, err := s.Get(ctx, "proofs/abc/receipt.jpg")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "proof bytes", string(data))
	assert.Equal(t, int64(len("proof bytes")), info.Size)
	assert.Equal(t, "proofs/abc/receipt.jpg", info.Key)
}

func TestLocalStorage_GetMissingKey(t *testing.T) {
	s := newTestStorage(t)

	_, _, err := s.Get(context.Background(), "proofs/missing.jpg")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_PutEnforcesMaxSize(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "proofs/big.jpg", strings.NewReader("0123456789"), PutOptions{MaxSize: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	// Oversized writes must not leave a partial object behind.
	_, _, err = s.Get(ctx, "proofs/big.jpg")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_RejectsTraversalKeys(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../b"} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		require.Error(t, err, "key %q", key)
		assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
	}
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "proofs/x.jpg", strings.NewReader("x"), PutOptions{}))
	require.NoError(t, s.Delete(ctx, "proofs/x.jpg"))
	require.NoError(t, s.Delete(ctx, "proofs/x.jpg"))
}

func TestLocalStorage_URL(t *testing.T) {
	s := newTestStorage(t)

	url, err := s.URL(context.Background(), "proofs/x.jpg", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/proofs/x.jpg", url)
}
