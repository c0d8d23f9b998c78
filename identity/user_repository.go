package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type Repository struct{ pool *pgxpool.Pool }

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts the user and makes it an administrator when asked to or
// when the table was empty. Concurrent first registrations are serialized so
// only one of them can become the initial administrator.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string, admin bool) (User, error) {
	var user User

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('users'));`); err != nil {
			return fmt.Errorf("failed to lock users: %w", err)
		}

		sql := `
				INSERT INTO users(username, password_hash, is_admin)
				VALUES ($1, $2, $3 OR NOT EXISTS (SELECT 1 FROM users))
				RETURNING id, username, password_hash, is_admin, created_at;
			`

		return tx.QueryRow(ctx, sql, username, passwordHash, admin).Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.IsAdmin,
			&user.CreatedAt,
		)
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return User{}, ErrUsernameTaken
	}

	if err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (User, error) {
	return r.getUser(ctx, `WHERE id=$1`, id)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return r.getUser(ctx, `WHERE username=$1`, username)
}

func (r *Repository) getUser(ctx context.Context, where string, arg string) (User, error) {
	sql := `SELECT id, username, password_hash, is_admin, created_at FROM users ` + where + `;`

	var user User
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}

	if err != nil {
		return User{}, fmt.Errorf("failed to fetch user '%v': %w", arg, err)
	}

	return user, nil
}

func (r *Repository) ListUsers(ctx context.Context, skip, limit int) ([]User, error) {
	sql := `
            SELECT id, username, password_hash, is_admin, created_at
            FROM users
            ORDER BY created_at, id
            OFFSET $1 LIMIT $2;
        `

	rows, err := r.pool.Query(ctx, sql, skip, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		var user User
		err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
		return user, err
	})

	if err != nil {
		return nil, fmt.Errorf("error scanning user rows: %w", err)
	}

	return users, nil
}

// UpdateUser applies the non-nil fields of patch and refuses to leave the
// system without any administrator.
func (r *Repository) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	var user User

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('users'));`); err != nil {
			return fmt.Errorf("failed to lock users: %w", err)
		}

		sql := `
				UPDATE users
				SET username=COALESCE($1, username), is_admin=COALESCE($2, is_admin)
				WHERE id=$3
				RETURNING id, username, password_hash, is_admin, created_at;
			`

		err := tx.QueryRow(ctx, sql, patch.Username, patch.IsAdmin, id).Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.IsAdmin,
			&user.CreatedAt,
		)

		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}

		if err != nil {
			return err
		}

		var admins int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_admin;`).Scan(&admins); err != nil {
			return err
		}

		if admins == 0 {
			return ErrLastAdmin
		}

		return nil
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return User{}, ErrUsernameTaken
	}

	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrLastAdmin) {
		return User{}, err
	}

	if err != nil {
		return User{}, fmt.Errorf("failed to update user '%v': %w", id, err)
	}

	return user, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1;`, id)

	if err != nil {
		return fmt.Errorf("failed to delete user '%v': %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
