package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

type adminsRepo struct {
	db dbtx
}

const adminColumns = `id, username, password_hash, created_at, last_login_at`

func (r *adminsRepo) CreateAdmin(
	ctx context.Context,
	username, passwordHash string,
) (domain.AdminUser, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AdminUser{}, store.ErrAlreadyExists
		}
		return domain.AdminUser{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.AdminUser{}, err
	}

	return domain.AdminUser{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

func (r *adminsRepo) GetAdminByUsername(
	ctx context.Context,
	username string,
) (domain.AdminUser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE username = ?`, username)

	var (
		a         domain.AdminUser
		lastLogin sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &lastLogin); err != nil {
		return domain.AdminUser{}, mapNotFound(err)
	}
	a.LastLoginAt = mapNullTimePtr(lastLogin)
	return a, nil
}

func (r *adminsRepo) UpdateLastLogin(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET last_login_at = ? WHERE username = ?`,
		time.Now().UTC(), username,
	)
	return err
}

func (r *adminsRepo) UpdatePasswordHash(ctx context.Context, username, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET password_hash = ? WHERE username = ?`,
		newHash, username,
	)
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

func (r *adminsRepo) ListAdmins(ctx context.Context) ([]domain.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.AdminUser
	for rows.Next() {
		var (
			a         domain.AdminUser
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		a.LastLoginAt = mapNullTimePtr(lastLogin)
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (r *adminsRepo) DeleteAdmin(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_users WHERE username = ?`, username)
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
