// Package provision isolates the external account-creation step behind a
// narrow capability interface. The real implementation shells out to the
// homeserver's registration tool; the stub stands in when no live server is
// available.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/synapsekit/registrar/pkg/slogx"
)

var (
	// ErrUserExists reports that the external tool refused the username
	// because an account with it already exists.
	ErrUserExists = errors.New("provision: user already exists")

	// ErrFailed covers every other provisioning failure: missing binary,
	// non-zero exit, timeout. The wrapped detail is for server logs only and
	// must not reach end users.
	ErrFailed = errors.New("provision: account creation failed")
)

// Provisioner creates an account on the remote chat server. The call is an
// out-of-process, non-idempotent side effect: it may have created the account
// even when it returns an error, and callers must only commit bookkeeping
// after a nil return.
type Provisioner interface {
	ProvisionAccount(ctx context.Context, username, password string) error
}

// outputMatchesExisting holds the known phrasings registration tools emit
// when the username is taken. Matching is a best-effort heuristic; anything
// unmatched is treated conservatively as a generic failure, never success.
var outputMatchesExisting = []string{
	"already taken",
	"already exists",
	"already in use",
	"user id already taken",
}

// ExecProvisioner runs a configured command template as a subprocess.
//
// The template is split into argv first and placeholders are substituted
// per-argument afterwards, so credential values are passed as discrete exec
// arguments and never interpreted by a shell.
type ExecProvisioner struct {
	// CommandTemplate is the registration command with {username} and
	// {password} placeholders, e.g.
	// "register_new_matrix_user --no-admin -c /etc/synapse/homeserver.yaml -u {username} -p {password} http://127.0.0.1:8008"
	CommandTemplate string

	// Timeout bounds the subprocess; an expired deadline is a failure.
	Timeout time.Duration
}

func (p *ExecProvisioner) ProvisionAccount(ctx context.Context, username, password string) error {
	log := slogx.FromContext(ctx)

	argv, err := RenderCommand(p.CommandTemplate, username, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		log.Info("account provisioned", slog.String("username", username))
		return nil
	}

	// Full detail goes to the server log; callers surface only a generic
	// message to the visitor.
	log.Error("provisioning command failed",
		slog.String("username", username),
		slog.String("command", argv[0]),
		slog.String("output", truncate(string(output), 2048)),
		slog.Any("error", err),
	)

	if isExistingUserOutput(string(output)) {
		return ErrUserExists
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: timed out after %s", ErrFailed, p.Timeout)
	case errors.As(err, &exitErr):
		return fmt.Errorf("%w: exit status %d", ErrFailed, exitErr.ExitCode())
	default:
		// Binary missing, not executable, etc.
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}
}

// RenderCommand splits the template into argv and substitutes the {username}
// and {password} placeholders within each argument. Splitting happens before
// substitution, so values containing spaces or metacharacters stay confined
// to a single argument.
func RenderCommand(template, username, password string) ([]string, error) {
	argv := strings.Fields(template)
	if len(argv) == 0 {
		return nil, errors.New("empty command template")
	}

	for i, arg := range argv {
		arg = strings.ReplaceAll(arg, "{username}", username)
		arg = strings.ReplaceAll(arg, "{password}", password)
		argv[i] = arg
	}
	return argv, nil
}

func isExistingUserOutput(output string) bool {
	lower := strings.ToLower(output)
	for _, phrase := range outputMatchesExisting {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StubProvisioner is the testing-mode implementation: it logs the account it
// would have created and succeeds without touching any server.
type StubProvisioner struct{}

func (StubProvisioner) ProvisionAccount(ctx context.Context, username, _ string) error {
	slogx.FromContext(ctx).Info("testing mode: skipping account provisioning",
		slog.String("username", username),
	)
	return nil
}
