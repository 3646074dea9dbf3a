package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(sc interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser creates a new user. An empty role defaults to view_only.
func CreateUser(ctx context.Context, q Querier, name, email, passwordHash, role string) (*model.User, error) {
	email = NormalizeEmail(email)
	if role == "" {
		role = model.RoleViewOnly
	}
	switch {
	case strings.TrimSpace(name) == "":
		return nil, MissingField("name")
	case email == "":
		return nil, MissingField("email")
	case !model.ValidRole(role):
		return nil, Invalid("role", "must be %q or %q", model.RoleAdministrator, model.RoleViewOnly)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(name), email, passwordHash, role,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("email %s already registered: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, dbError("creating user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, dbError("getting user id", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting user", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email address.
func GetUserByEmail(ctx context.Context, q Querier, email string) (*model.User, error) {
	email = NormalizeEmail(email)
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting user by email", err)
	}
	return u, nil
}

// ListUsers returns all users.
func ListUsers(ctx context.Context, q Querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, dbError("listing users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbError("scanning user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("listing users", err)
	}
	return users, nil
}

// UpdateUser updates a user's profile and role.
func UpdateUser(ctx context.Context, q Querier, id int64, name, email, role string) (*model.User, error) {
	email = NormalizeEmail(email)
	switch {
	case strings.TrimSpace(name) == "":
		return nil, MissingField("name")
	case email == "":
		return nil, MissingField("email")
	case !model.ValidRole(role):
		return nil, Invalid("role", "must be %q or %q", model.RoleAdministrator, model.RoleViewOnly)
	}

	result, err := q.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, role = ? WHERE id = ?`,
		strings.TrimSpace(name), email, role, id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("email %s already registered: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, dbError("updating user", err)
	}
	n, err := rowsAffected(result, "updating user")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	return GetUser(ctx, q, id)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q Querier, id int64, passwordHash string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return dbError("updating user password", err)
	}
	n, err := rowsAffected(result, "updating user password")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user.
func DeleteUser(ctx context.Context, q Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return dbError("deleting user", err)
	}
	n, err := rowsAffected(result, "deleting user")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountAdministrators returns the number of users with the administrator role.
func CountAdministrators(ctx context.Context, q Querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, model.RoleAdministrator,
	).Scan(&count)
	if err != nil {
		return 0, dbError("counting administrators", err)
	}
	return count, nil
}
