package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

func TestAdminServiceVerify(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AdminService{Store: st}

	_, err := svc.Create(ctx, "root", "hunter2!")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		admin, err := svc.Verify(ctx, "root", "hunter2!")
		require.NoError(t, err)
		require.Equal(t, "root", admin.Username)
	})

	t.Run("verify stamps last login", func(t *testing.T) {
		admin, err := st.Admins().GetAdminByUsername(ctx, "root")
		require.NoError(t, err)
		require.NotNil(t, admin.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Verify(ctx, "root", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username gets the same error", func(t *testing.T) {
		_, err := svc.Verify(ctx, "nobody", "hunter2!")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAdminServiceCreate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AdminService{Store: st}

	admin, err := svc.Create(ctx, "ops", "secret-pw1!")
	require.NoError(t, err)
	require.Equal(t, "ops", admin.Username)
	require.NotEqual(t, "secret-pw1!", admin.PasswordHash)
	require.Contains(t, admin.PasswordHash, "$argon2id$")

	_, err = svc.Create(ctx, "ops", "another-pw1!")
	require.ErrorIs(t, err, ErrDuplicateAdmin)
}

func TestAdminServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AdminService{Store: st}

	_, err := svc.Create(ctx, "root", "old-secret1!")
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "root", "nope", "new-secret1!", DefaultPasswordPolicy)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("weak replacement rejected", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "root", "old-secret1!", "short", DefaultPasswordPolicy)
		require.ErrorIs(t, err, ErrPolicyViolation)

		// Old password still works.
		_, err = svc.Verify(ctx, "root", "old-secret1!")
		require.NoError(t, err)
	})

	t.Run("unknown admin", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "ghost", "x", "new-secret1!", DefaultPasswordPolicy)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("successful change", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "root", "old-secret1!", "new-secret1!", DefaultPasswordPolicy)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, "root", "old-secret1!")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Verify(ctx, "root", "new-secret1!")
		require.NoError(t, err)
	})
}

func TestAdminServiceListAndRemove(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &AdminService{Store: st}

	for _, name := range []string{"zara", "abe"} {
		_, err := svc.Create(ctx, name, "secret-pw1!")
		require.NoError(t, err)
	}

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	require.Equal(t, "abe", admins[0].Username)
	require.Equal(t, "zara", admins[1].Username)

	require.NoError(t, svc.Remove(ctx, "abe"))
	err = svc.Remove(ctx, "abe")
	require.ErrorIs(t, err, store.ErrNotFound)
}
