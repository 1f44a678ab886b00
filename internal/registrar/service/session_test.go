package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionServiceAdmin(t *testing.T) {
	svc := &SessionService{Secret: []byte("test-secret"), TTL: time.Hour}

	t.Run("issue and verify roundtrip", func(t *testing.T) {
		token, expiresAt, err := svc.IssueAdmin("root")
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

		username, remaining, err := svc.VerifyAdmin(token)
		require.NoError(t, err)
		require.Equal(t, "root", username)
		require.Greater(t, remaining, 59*time.Minute)
	})

	t.Run("expired session rejected", func(t *testing.T) {
		expired := &SessionService{Secret: svc.Secret, TTL: -time.Minute}
		token, _, err := expired.IssueAdmin("root")
		require.NoError(t, err)

		_, _, err = svc.VerifyAdmin(token)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		token, _, err := svc.IssueAdmin("root")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

		_, _, err = svc.VerifyAdmin(tampered)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := &SessionService{Secret: []byte("other-secret"), TTL: time.Hour}
		token, _, err := other.IssueAdmin("root")
		require.NoError(t, err)

		_, _, err = svc.VerifyAdmin(token)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
			_, _, err := svc.VerifyAdmin(input)
			require.ErrorIs(t, err, ErrInvalidSession)
		}
	})
}

func TestSessionServiceSuccess(t *testing.T) {
	svc := &SessionService{Secret: []byte("test-secret"), TTL: time.Hour}

	t.Run("issue and verify roundtrip", func(t *testing.T) {
		token, expiresAt, err := svc.IssueSuccess("alice")
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

		username, err := svc.VerifySuccess(token)
		require.NoError(t, err)
		require.Equal(t, "alice", username)
	})

	t.Run("token types are not interchangeable", func(t *testing.T) {
		success, _, err := svc.IssueSuccess("alice")
		require.NoError(t, err)
		_, _, err = svc.VerifyAdmin(success)
		require.ErrorIs(t, err, ErrInvalidSession)

		admin, _, err := svc.IssueAdmin("root")
		require.NoError(t, err)
		_, err = svc.VerifySuccess(admin)
		require.ErrorIs(t, err, ErrInvalidSession)
	})
}
