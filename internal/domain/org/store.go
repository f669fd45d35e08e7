package org

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = "id, first_name, last_name, email, team, designation, org_level, COALESCE(manager_id::text, ''), active, created_at"

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Team, &e.Designation, &e.Level, &e.ManagerID, &e.Active, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
}

func (s *Store) EmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE lower(email) = lower($1)", email))
}

func (s *Store) ListEmployees(ctx context.Context, team string, activeOnly bool, limit, offset int) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees"
	var clauses []string
	var args []any
	if team != "" {
		args = append(args, team)
		clauses = append(clauses, fmt.Sprintf("team = $%d", len(args)))
	}
	if activeOnly {
		clauses = append(clauses, "active")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY last_name, first_name"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, e Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, team, designation, org_level, manager_id, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,true)
    RETURNING id
  `, e.FirstName, e.LastName, e.Email, e.Team, e.Designation, e.Level, nullIfEmpty(e.ManagerID)).Scan(&id)
	return id, err
}

func (s *Store) UpdateEmployee(ctx context.Context, e Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $2, last_name = $3, team = $4, designation = $5, org_level = $6, manager_id = $7
    WHERE id = $1
  `, e.ID, e.FirstName, e.LastName, e.Team, e.Designation, e.Level, nullIfEmpty(e.ManagerID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// DeactivateEmployee marks the record inactive. Employees are never deleted;
// historical nominations keep referring to them.
func (s *Store) DeactivateEmployee(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET active = false WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// Snapshot loads the full organization graph. Deactivated employees are
// included so historical records still resolve; Classify rejects them as
// candidates.
func (s *Store) Snapshot(ctx context.Context) (*Graph, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+employeeColumns+" FROM employees")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewGraph(employees), nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
