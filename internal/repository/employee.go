package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/employees-api/internal/models"
	"github.com/jackc/pgx/v5"
)

// FindByID retrieves an employee from the database by their ID.
// It returns ErrEmployeeNotFound when there is no such row.
func (r *Repository) FindByID(ctx context.Context, identifier int) (models.Employee, error) {
	var result models.Employee

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.DBQueryDuration.WithLabelValues("find_employee_by_id").Observe(duration)
	}()
	query := `SELECT id, name, surname, department, salary FROM employees WHERE id = $1`

	err := r.db.QueryRow(ctx, query, identifier).Scan(
		&result.ID, &result.Name, &result.Surname, &result.Department, &result.Salary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	return result, nil
}

// FindAll returns every employee in store order.
func (r *Repository) FindAll(ctx context.Context) ([]models.Employee, error) {
	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.DBQueryDuration.WithLabelValues("find_all_employees").Observe(duration)
	}()
	query := `SELECT id, name, surname, department, salary FROM employees ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	employees, err := collectEmployees(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	return employees, nil
}

// FindAllByName returns the employees whose name is exactly equal to the given one.
func (r *Repository) FindAllByName(ctx context.Context, name string) ([]models.Employee, error) {
	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.DBQueryDuration.WithLabelValues("find_employees_by_name").Observe(duration)
	}()
	query := `SELECT id, name, surname, department, salary FROM employees WHERE name = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by name: %w", err)
	}

	employees, err := collectEmployees(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by name: %w", err)
	}

	return employees, nil
}

// Save inserts or updates an employee. An employee with a zero ID is inserted and gets
// the identifier assigned by the database; otherwise the row with that ID is fully replaced
// (or created if it does not exist).
func (r *Repository) Save(ctx context.Context, employee models.Employee) (models.Employee, error) {
	if employee.ID == 0 {
		return r.insert(ctx, employee)
	}

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.DBQueryDuration.WithLabelValues("upsert_employee").Observe(duration)
	}()
	query := `
		INSERT INTO employees (id, name, surname, department, salary)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, surname = EXCLUDED.surname,
			department = EXCLUDED.department, salary = EXCLUDED.salary;
	`

	_, err := r.db.Exec(ctx, query,
		employee.ID, employee.Name, employee.Surname, employee.Department, employee.Salary)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to save employee: %w", err)
	}

	return employee, nil
}

func (r *Repository) insert(ctx context.Context, employee models.Employee) (models.Employee, error) {
	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.DBQueryDuration.WithLabelValues("insert_employee").Observe(duration)
	}()
	query := `
		INSERT INTO employees (name, surname, department, salary)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	err := r.db.QueryRow(ctx, query,
		employee.Name, employee.Surname, employee.Department, employee.Salary).Scan(&employee.ID)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}

	return employee, nil
}

// DeleteByID removes the employee with the given ID. Deleting a missing row is not an error.
func (r *Repository) DeleteByID(ctx context.Context, identifier int) error {
	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.DBQueryDuration.WithLabelValues("delete_employee").Observe(duration)
	}()
	query := `DELETE FROM employees WHERE id = $1`

	_, err := r.db.Exec(ctx, query, identifier)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	return nil
}

func collectEmployees(rows pgx.Rows) ([]models.Employee, error) {
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Employee])
}
