package provision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderCommand(t *testing.T) {
	t.Run("substitutes placeholders per argument", func(t *testing.T) {
		argv, err := RenderCommand(
			"register_new_matrix_user -u {username} -p {password} http://127.0.0.1:8008",
			"alice", "s3cret!",
		)
		require.NoError(t, err)
		require.Equal(t, []string{
			"register_new_matrix_user", "-u", "alice", "-p", "s3cret!", "http://127.0.0.1:8008",
		}, argv)
	})

	t.Run("values with spaces stay one argument", func(t *testing.T) {
		argv, err := RenderCommand("adduser {password}", "x", "two words")
		require.NoError(t, err)
		require.Equal(t, []string{"adduser", "two words"}, argv)
	})

	t.Run("shell metacharacters are not interpreted", func(t *testing.T) {
		argv, err := RenderCommand("adduser {username}", "alice; rm -rf /", "pw")
		require.NoError(t, err)
		require.Equal(t, []string{"adduser", "alice; rm -rf /"}, argv)
	})

	t.Run("empty template rejected", func(t *testing.T) {
		_, err := RenderCommand("   ", "alice", "pw")
		require.Error(t, err)
	})
}

func TestIsExistingUserOutput(t *testing.T) {
	require.True(t, isExistingUserOutput("ERROR: User ID already taken.\n"))
	require.True(t, isExistingUserOutput("account already exists on this server"))
	require.False(t, isExistingUserOutput("connection refused"))
	require.False(t, isExistingUserOutput(""))
}

func TestExecProvisioner(t *testing.T) {
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		p := &ExecProvisioner{CommandTemplate: "true {username} {password}", Timeout: 5 * time.Second}
		require.NoError(t, p.ProvisionAccount(ctx, "alice", "pw"))
	})

	t.Run("missing binary is a provisioning failure", func(t *testing.T) {
		p := &ExecProvisioner{CommandTemplate: "definitely-not-a-real-binary-zz {username}"}
		err := p.ProvisionAccount(ctx, "alice", "pw")
		require.ErrorIs(t, err, ErrFailed)
	})

	t.Run("non-zero exit is a provisioning failure", func(t *testing.T) {
		p := &ExecProvisioner{CommandTemplate: "false", Timeout: 5 * time.Second}
		err := p.ProvisionAccount(ctx, "alice", "pw")
		require.ErrorIs(t, err, ErrFailed)
		require.NotErrorIs(t, err, ErrUserExists)
	})

	t.Run("timeout is a provisioning failure", func(t *testing.T) {
		p := &ExecProvisioner{CommandTemplate: "sleep 5", Timeout: 50 * time.Millisecond}
		start := time.Now()
		err := p.ProvisionAccount(ctx, "alice", "pw")
		require.ErrorIs(t, err, ErrFailed)
		require.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestStubProvisioner(t *testing.T) {
	require.NoError(t, StubProvisioner{}.ProvisionAccount(context.Background(), "alice", "pw"))
}
