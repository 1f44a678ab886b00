package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

func TestTokenServiceGenerate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TokenService{Store: st}

	t.Run("mints an unused token with a url-safe value", func(t *testing.T) {
		token, err := svc.Generate(ctx)
		require.NoError(t, err)
		require.False(t, token.Used)
		require.Nil(t, token.UsedAt)
		require.Nil(t, token.UsedBy)

		// 32 random bytes, base64url without padding.
		require.Len(t, token.Value, 43)
		require.NotContains(t, token.Value, "+")
		require.NotContains(t, token.Value, "/")
		require.NotContains(t, token.Value, "=")
	})

	t.Run("values are unique across mints", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 20 {
			token, err := svc.Generate(ctx)
			require.NoError(t, err)
			require.False(t, seen[token.Value])
			seen[token.Value] = true
		}
	})
}

func TestTokenServiceList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TokenService{Store: st}

	for _, value := range []string{"list-a", "list-b", "list-c"} {
		_, err := st.Tokens().CreateToken(ctx, value)
		require.NoError(t, err)
	}
	_, err := st.Tokens().ConsumeToken(ctx, "list-b", "bob")
	require.NoError(t, err)

	t.Run("all", func(t *testing.T) {
		tokens, stats, err := svc.List(ctx, domain.TokenFilterAll)
		require.NoError(t, err)
		require.Len(t, tokens, 3)
		require.Equal(t, domain.TokenStats{Total: 3, Used: 1, Unused: 2}, stats)
	})

	t.Run("used", func(t *testing.T) {
		tokens, stats, err := svc.List(ctx, domain.TokenFilterUsed)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		require.Equal(t, "list-b", tokens[0].Value)
		require.Equal(t, 3, stats.Total)
	})

	t.Run("unused", func(t *testing.T) {
		tokens, _, err := svc.List(ctx, domain.TokenFilterUnused)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		for _, token := range tokens {
			require.False(t, token.Used)
		}
	})
}

func TestTokenServiceDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TokenService{Store: st}

	token, err := st.Tokens().CreateToken(ctx, "del-me")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, token.ID))

	err = svc.Delete(ctx, token.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInviteLink(t *testing.T) {
	svc := &TokenService{BaseURL: "https://chat.example.org/"}

	link := svc.InviteLink("abc+def")
	require.Equal(t, "https://chat.example.org/register?token=abc%2Bdef", link)

	svc.BaseURL = "https://chat.example.org"
	require.Equal(t, "https://chat.example.org/register?token=plain", svc.InviteLink("plain"))
}
