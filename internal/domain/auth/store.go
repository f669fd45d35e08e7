package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID         string
	EmployeeID string
	RoleName   string
	Password   string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, COALESCE(u.employee_id::text, ''), u.role_name, u.password_hash
    FROM users u
    WHERE u.email = $1 AND u.active
  `, email).Scan(&out.ID, &out.EmployeeID, &out.RoleName, &out.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) CreateUser(ctx context.Context, id, email, passwordHash, roleName, employeeID string) error {
	var emp any
	if employeeID != "" {
		emp = employeeID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, email, password_hash, role_name, employee_id, active)
    VALUES ($1, $2, $3, $4, $5, true)
    ON CONFLICT (email) DO NOTHING
  `, id, email, passwordHash, roleName, emp)
	return err
}
