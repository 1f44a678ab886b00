package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, value, used, created_at, used_at, used_by`

func (r *tokensRepo) CreateToken(ctx context.Context, value string) (domain.Token, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (value, used, created_at) VALUES (?, 0, ?)`,
		value, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Token{}, store.ErrAlreadyExists
		}
		return domain.Token{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Token{}, err
	}

	return domain.Token{ID: id, Value: value, CreatedAt: now}, nil
}

func (r *tokensRepo) GetTokenByValue(ctx context.Context, value string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE value = ?`, value)
	return scanToken(row)
}

func (r *tokensRepo) ListTokens(
	ctx context.Context,
	filter domain.TokenFilter,
) ([]domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens`
	switch filter {
	case domain.TokenFilterUsed:
		query += ` WHERE used = 1`
	case domain.TokenFilterUnused:
		query += ` WHERE used = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *tokensRepo) CountTokens(ctx context.Context) (domain.TokenStats, error) {
	var stats domain.TokenStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(used), 0) FROM tokens`,
	).Scan(&stats.Total, &stats.Used)
	if err != nil {
		return domain.TokenStats{}, err
	}
	stats.Unused = stats.Total - stats.Used
	return stats, nil
}

func (r *tokensRepo) DeleteToken(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ConsumeToken is the single atomic state transition the whole service hangs
// off: update-where-unused, then check how many rows moved. SQLite serializes
// writers, so exactly one concurrent caller can observe a row transition.
func (r *tokensRepo) ConsumeToken(
	ctx context.Context,
	value, usedBy string,
) (domain.Token, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET used = 1, used_at = ?, used_by = ? WHERE value = ? AND used = 0`,
		now, usedBy, value,
	)
	if err != nil {
		return domain.Token{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Token{}, err
	}

	if n == 0 {
		// Zero rows moved: either the token never existed or it was already
		// consumed. Distinguish the two for user-facing messaging.
		var used bool
		err := r.db.QueryRowContext(ctx,
			`SELECT used FROM tokens WHERE value = ?`, value,
		).Scan(&used)
		if err != nil {
			return domain.Token{}, mapNotFound(err)
		}
		return domain.Token{}, store.ErrAlreadyUsed
	}

	return r.GetTokenByValue(ctx, value)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (domain.Token, error) {
	var (
		t      domain.Token
		usedAt sql.NullTime
		usedBy sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Value, &t.Used, &t.CreatedAt, &usedAt, &usedBy); err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	t.UsedAt = mapNullTimePtr(usedAt)
	t.UsedBy = mapNullStringPtr(usedBy)
	return t, nil
}
