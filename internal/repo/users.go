package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
)

const userColumns = `user_key,COALESCE(display_name,''),role,COALESCE(shift_type_id,''),COALESCE(password_hash,''),created_at`

func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var u domain.User
	err := scan(&u.Key, &u.DisplayName, &u.Role, &u.ShiftTypeID, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (r Repo) InsertUser(ctx context.Context, tx *sql.Tx, u domain.User) error {
	if strings.TrimSpace(u.Key) == "" {
		return errors.New("user key required")
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO users(user_key,display_name,role,shift_type_id,password_hash,created_at) VALUES (?,?,?,?,?,?)`,
		u.Key, nullable(u.DisplayName), u.Role, nullable(u.ShiftTypeID), nullable(u.PasswordHash), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r Repo) GetUser(ctx context.Context, key string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_key=?`, key)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// UpdateUser changes display name, role, shift and, when non-empty, the
// password hash.
func (r Repo) UpdateUser(ctx context.Context, u domain.User) error {
	query := `UPDATE users SET display_name=?, role=?, shift_type_id=?`
	args := []any{nullable(u.DisplayName), u.Role, nullable(u.ShiftTypeID)}
	if u.PasswordHash != "" {
		query += `, password_hash=?`
		args = append(args, u.PasswordHash)
	}
	query += ` WHERE user_key=?`
	args = append(args, u.Key)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
