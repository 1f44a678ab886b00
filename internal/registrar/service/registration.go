package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/provision"
	"github.com/synapsekit/registrar/internal/registrar/store"
	"github.com/synapsekit/registrar/pkg/slogx"
)

var (
	ErrInvalidToken     = errors.New("registration token is invalid")
	ErrTokenAlreadyUsed = errors.New("registration token has already been used")
	ErrPolicyViolation  = errors.New("registration input rejected by policy")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrProvisioning     = errors.New("account provisioning failed")

	// ErrInternalInconsistency reports the acknowledged race: this caller's
	// account was provisioned, but another request consumed the token first.
	// The external side effect cannot be undone; only the bookkeeping is
	// guaranteed consistent.
	ErrInternalInconsistency = errors.New("token was consumed by a concurrent registration")
)

// PolicyViolationError carries the user-facing reason for a rejected input.
// errors.Is(err, ErrPolicyViolation) matches it.
type PolicyViolationError struct {
	Reason string
}

func (e *PolicyViolationError) Error() string { return "policy violation: " + e.Reason }

func (e *PolicyViolationError) Is(target error) bool { return target == ErrPolicyViolation }

// RegisterRequest is one visitor registration attempt.
type RegisterRequest struct {
	Token           string
	Username        string
	Password        string
	ConfirmPassword string
}

// RegistrationService drives an attempt through its gates:
// token check, policy check, external provisioning, atomic token consumption.
type RegistrationService struct {
	Store       store.Store
	Provisioner provision.Provisioner
	Policy      PasswordPolicy
}

// CheckToken reports whether value names a known, still-unused token. It is
// the read-only check behind the registration form; consumption happens only
// through Register.
func (s *RegistrationService) CheckToken(ctx context.Context, value string) error {
	if value == "" {
		return ErrInvalidToken
	}

	token, err := s.Store.Tokens().GetTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if token.Used {
		return ErrTokenAlreadyUsed
	}
	return nil
}

// Register runs one registration attempt. On success the returned token is
// the consumed row, bound to the new username. Provisioning happens before
// consumption so a failed account creation leaves the invitation usable for
// a genuine retry; the small race window that ordering admits is resolved by
// the atomic consume and reported as ErrInternalInconsistency to the loser.
func (s *RegistrationService) Register(
	ctx context.Context,
	req RegisterRequest,
) (domain.Token, error) {
	log := slogx.FromContext(ctx)

	if req.Token == "" {
		return domain.Token{}, ErrInvalidToken
	}
	if req.Username == "" || req.Password == "" || req.ConfirmPassword == "" {
		return domain.Token{}, &PolicyViolationError{
			Reason: "Username and both password fields are required.",
		}
	}

	// Optimistic pre-check: cheap short-circuit for a friendly message before
	// any heavy work. The authoritative check is the atomic consume below.
	token, err := s.Store.Tokens().GetTokenByValue(ctx, req.Token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("registration attempted with unknown token")
			return domain.Token{}, ErrInvalidToken
		}
		return domain.Token{}, err
	}
	if token.Used {
		log.Warn("registration attempted with used token", slog.Int64("token_id", token.ID))
		return domain.Token{}, ErrTokenAlreadyUsed
	}

	if err := ValidateUsername(req.Username); err != nil {
		return domain.Token{}, err
	}
	if req.Password != req.ConfirmPassword {
		return domain.Token{}, &PolicyViolationError{Reason: "Passwords do not match."}
	}
	if err := s.Policy.Validate(req.Password); err != nil {
		return domain.Token{}, err
	}

	// Out-of-process, non-idempotent side effect. Nothing is committed to the
	// store unless this succeeds.
	if err := s.Provisioner.ProvisionAccount(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, provision.ErrUserExists) {
			log.Warn("provisioning refused: username taken",
				slog.String("username", req.Username),
			)
			return domain.Token{}, ErrUsernameTaken
		}
		// Detail was already logged inside the provisioner; callers show the
		// visitor only a generic failure.
		return domain.Token{}, errors.Join(ErrProvisioning, err)
	}

	consumed, err := s.Store.Tokens().ConsumeToken(ctx, req.Token, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyUsed):
			// A concurrent request won the consume after both passed the
			// optimistic check. This caller's account creation already
			// happened and cannot be rolled back.
			log.Error("token consumed concurrently after provisioning",
				slog.Int64("token_id", token.ID),
				slog.String("username", req.Username),
			)
			return domain.Token{}, ErrInternalInconsistency
		case errors.Is(err, store.ErrNotFound):
			// Token deleted between the pre-check and the consume.
			log.Error("token disappeared after provisioning",
				slog.Int64("token_id", token.ID),
			)
			return domain.Token{}, ErrInternalInconsistency
		default:
			return domain.Token{}, err
		}
	}

	log.Info("registration complete",
		slog.String("username", req.Username),
		slog.Int64("token_id", consumed.ID),
	)
	return consumed, nil
}
