package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/store"
	"github.com/synapsekit/registrar/pkg/cryptox"
	"github.com/synapsekit/registrar/pkg/slogx"
)

// maxGenerateAttempts bounds the retry loop on value collisions. A collision
// of two 256-bit tokens is astronomically unlikely; more than a couple in a
// row means the RNG is broken and we should fail loudly.
const maxGenerateAttempts = 5

type TokenService struct {
	Store store.Store

	// BaseURL is the externally visible origin used to build invite links,
	// e.g. "https://chat.example.org".
	BaseURL string
}

// Generate mints a new single-use invitation token and persists it unused.
func (s *TokenService) Generate(ctx context.Context) (domain.Token, error) {
	log := slogx.FromContext(ctx)

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		value, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			log.Error("failed to generate token value", slog.Any("error", err))
			return domain.Token{}, err
		}

		token, err := s.Store.Tokens().CreateToken(ctx, value)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				log.Warn("token value collision, retrying", slog.Int("attempt", attempt))
				continue
			}
			log.Error("failed to persist token", slog.Any("error", err))
			return domain.Token{}, err
		}

		log.Info("invitation token created", slog.Int64("token_id", token.ID))
		return token, nil
	}

	return domain.Token{}, fmt.Errorf("token generation failed after %d attempts", maxGenerateAttempts)
}

// List returns tokens matching the filter, newest first, along with the
// bucket counts for the management UI summary.
func (s *TokenService) List(
	ctx context.Context,
	filter domain.TokenFilter,
) ([]domain.Token, domain.TokenStats, error) {
	tokens, err := s.Store.Tokens().ListTokens(ctx, filter)
	if err != nil {
		return nil, domain.TokenStats{}, err
	}

	stats, err := s.Store.Tokens().CountTokens(ctx)
	if err != nil {
		return nil, domain.TokenStats{}, err
	}

	return tokens, stats, nil
}

// Delete removes a token regardless of used state. A second delete of the
// same id reports store.ErrNotFound rather than failing hard.
func (s *TokenService) Delete(ctx context.Context, id int64) error {
	err := s.Store.Tokens().DeleteToken(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		slogx.FromContext(ctx).Error("failed to delete token",
			slog.Int64("token_id", id),
			slog.Any("error", err),
		)
		return err
	}

	slogx.FromContext(ctx).Info("invitation token deleted", slog.Int64("token_id", id))
	return nil
}

// InviteLink renders the absolute registration URL for a token value.
func (s *TokenService) InviteLink(value string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	return base + "/register?token=" + url.QueryEscape(value)
}
