package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// newFileStore gives a disk-backed database so the connection pool can serve
// genuinely concurrent queries.
func newFileStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registrar.db")
	st, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestTokensCreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	created, err := st.Tokens().CreateToken(ctx, "value-1")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.Used)

	fetched, err := st.Tokens().GetTokenByValue(ctx, "value-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, "value-1", fetched.Value)
	require.False(t, fetched.Used)
	require.Nil(t, fetched.UsedAt)
	require.Nil(t, fetched.UsedBy)

	t.Run("duplicate value", func(t *testing.T) {
		_, err := st.Tokens().CreateToken(ctx, "value-1")
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown value", func(t *testing.T) {
		_, err := st.Tokens().GetTokenByValue(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTokensListAndCount(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	for i := range 5 {
		_, err := st.Tokens().CreateToken(ctx, fmt.Sprintf("tok-%d", i))
		require.NoError(t, err)
	}
	for _, value := range []string{"tok-1", "tok-3"} {
		_, err := st.Tokens().ConsumeToken(ctx, value, "someone")
		require.NoError(t, err)
	}

	t.Run("list all newest first", func(t *testing.T) {
		tokens, err := st.Tokens().ListTokens(ctx, domain.TokenFilterAll)
		require.NoError(t, err)
		require.Len(t, tokens, 5)

		// Identical created_at timestamps fall back to id ordering.
		for i := 1; i < len(tokens); i++ {
			require.Greater(t, tokens[i-1].ID, tokens[i].ID)
		}
	})

	t.Run("filter used", func(t *testing.T) {
		tokens, err := st.Tokens().ListTokens(ctx, domain.TokenFilterUsed)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		for _, token := range tokens {
			require.True(t, token.Used)
			require.NotNil(t, token.UsedAt)
		}
	})

	t.Run("filter unused", func(t *testing.T) {
		tokens, err := st.Tokens().ListTokens(ctx, domain.TokenFilterUnused)
		require.NoError(t, err)
		require.Len(t, tokens, 3)
	})

	t.Run("counts add up", func(t *testing.T) {
		stats, err := st.Tokens().CountTokens(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.TokenStats{Total: 5, Used: 2, Unused: 3}, stats)
	})

	t.Run("empty table counts", func(t *testing.T) {
		empty := newMemoryStore(t)
		stats, err := empty.Tokens().CountTokens(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.TokenStats{}, stats)
	})
}

func TestTokensDelete(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	token, err := st.Tokens().CreateToken(ctx, "doomed")
	require.NoError(t, err)

	require.NoError(t, st.Tokens().DeleteToken(ctx, token.ID))

	err = st.Tokens().DeleteToken(ctx, token.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Tokens().GetTokenByValue(ctx, "doomed")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokensConsume(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	_, err := st.Tokens().CreateToken(ctx, "consume-me")
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)

	consumed, err := st.Tokens().ConsumeToken(ctx, "consume-me", "alice")
	require.NoError(t, err)
	require.True(t, consumed.Used)
	require.NotNil(t, consumed.UsedAt)
	require.True(t, consumed.UsedAt.After(before))
	require.NotNil(t, consumed.UsedBy)
	require.Equal(t, "alice", *consumed.UsedBy)

	t.Run("second consume fails", func(t *testing.T) {
		_, err := st.Tokens().ConsumeToken(ctx, "consume-me", "bob")
		require.ErrorIs(t, err, store.ErrAlreadyUsed)

		// The original consumer is untouched.
		token, err := st.Tokens().GetTokenByValue(ctx, "consume-me")
		require.NoError(t, err)
		require.Equal(t, "alice", *token.UsedBy)
	})

	t.Run("unknown value", func(t *testing.T) {
		_, err := st.Tokens().ConsumeToken(ctx, "missing", "alice")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTokensConsumeConcurrent(t *testing.T) {
	ctx := context.Background()
	st := newFileStore(t)

	_, err := st.Tokens().CreateToken(ctx, "contended")
	require.NoError(t, err)

	const attempts = 16

	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = st.Tokens().ConsumeToken(ctx, "contended", fmt.Sprintf("user-%d", i))
		}()
	}
	wg.Wait()

	var winners int
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		require.True(t, errors.Is(err, store.ErrAlreadyUsed), "unexpected error: %v", err)
	}
	require.Equal(t, 1, winners)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	t.Run("commit on success", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			_, err := tx.Tokens().CreateToken(ctx, "tx-keep")
			return err
		})
		require.NoError(t, err)

		_, err = st.Tokens().GetTokenByValue(ctx, "tx-keep")
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Tokens().CreateToken(ctx, "tx-drop"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = st.Tokens().GetTokenByValue(ctx, "tx-drop")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
