package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

func TestAdminsCreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	created, err := st.Admins().CreateAdmin(ctx, "root", "hash-1")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Nil(t, created.LastLoginAt)

	fetched, err := st.Admins().GetAdminByUsername(ctx, "root")
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, "hash-1", fetched.PasswordHash)
	require.Nil(t, fetched.LastLoginAt)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := st.Admins().CreateAdmin(ctx, "root", "hash-2")
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := st.Admins().GetAdminByUsername(ctx, "ghost")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAdminsUpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	_, err := st.Admins().CreateAdmin(ctx, "root", "hash")
	require.NoError(t, err)

	require.NoError(t, st.Admins().UpdateLastLogin(ctx, "root"))

	admin, err := st.Admins().GetAdminByUsername(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, admin.LastLoginAt)
}

func TestAdminsUpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	_, err := st.Admins().CreateAdmin(ctx, "root", "old-hash")
	require.NoError(t, err)

	require.NoError(t, st.Admins().UpdatePasswordHash(ctx, "root", "new-hash"))

	admin, err := st.Admins().GetAdminByUsername(ctx, "root")
	require.NoError(t, err)
	require.Equal(t, "new-hash", admin.PasswordHash)

	err = st.Admins().UpdatePasswordHash(ctx, "ghost", "hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdminsListAndDelete(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)

	for _, name := range []string{"mallory", "alice", "bob"} {
		_, err := st.Admins().CreateAdmin(ctx, name, "hash")
		require.NoError(t, err)
	}

	admins, err := st.Admins().ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 3)
	require.Equal(t, "alice", admins[0].Username)
	require.Equal(t, "bob", admins[1].Username)
	require.Equal(t, "mallory", admins[2].Username)

	require.NoError(t, st.Admins().DeleteAdmin(ctx, "bob"))

	err = st.Admins().DeleteAdmin(ctx, "bob")
	require.ErrorIs(t, err, store.ErrNotFound)

	admins, err = st.Admins().ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 2)
}
