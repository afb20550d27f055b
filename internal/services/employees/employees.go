package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/employees-api/internal/lib/logger/sl"
	"github.com/UnknownOlympus/employees-api/internal/metrics"
	"github.com/UnknownOlympus/employees-api/internal/models"
	"github.com/UnknownOlympus/employees-api/internal/repository"
)

// Staff mediates between the HTTP layer and the employee repository.
//
// Update and Delete check that the row exists before mutating it. The check and the
// write are separate statements; concurrent callers may interleave between them.
type Staff struct {
	log     *slog.Logger
	repo    repository.EmployeeRepoIface
	metrics *metrics.Metrics
}

func NewStaff(log *slog.Logger, repo repository.EmployeeRepoIface, appMetrics *metrics.Metrics) *Staff {
	return &Staff{log: log, repo: repo, metrics: appMetrics}
}

func (s *Staff) initLogger(opn string) *slog.Logger {
	return s.log.With(
		sl.Op(opn),
		slog.String("division", "employee"),
	)
}

// ListAll returns every employee in store order. The result is never nil.
func (s *Staff) ListAll(ctx context.Context) ([]models.Employee, error) {
	const opn = "Employee.ListAll"

	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		s.record("list_all", metrics.ResultError)
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	s.record("list_all", metrics.ResultSuccess)
	return nonNil(employees), nil
}

// Get returns the employee with the given id. The boolean is false when there is no such employee.
func (s *Staff) Get(ctx context.Context, identifier int) (models.Employee, bool, error) {
	const opn = "Employee.Get"

	employee, found, err := IsEmployeeExists(ctx, identifier, s.repo)
	switch {
	case err != nil:
		s.record("get", metrics.ResultError)
		return models.Employee{}, false, fmt.Errorf("%s: %w", opn, err)
	case !found:
		s.initLogger(opn).DebugContext(ctx, "employee not found", "id", identifier)
		s.record("get", metrics.ResultNotFound)
		return models.Employee{}, false, nil
	}

	s.record("get", metrics.ResultSuccess)
	return employee, true, nil
}

// ListByName returns the employees whose name equals the given one exactly.
func (s *Staff) ListByName(ctx context.Context, name string) ([]models.Employee, error) {
	const opn = "Employee.ListByName"

	employees, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		s.record("list_by_name", metrics.ResultError)
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	s.record("list_by_name", metrics.ResultSuccess)
	return nonNil(employees), nil
}

// Create persists a new employee. Any id carried by the argument is discarded,
// the store assigns a fresh one.
func (s *Staff) Create(ctx context.Context, employee models.Employee) (models.Employee, error) {
	const opn = "Employee.Create"
	log := s.initLogger(opn)

	employee.ID = 0
	saved, err := s.repo.Save(ctx, employee)
	if err != nil {
		s.record("create", metrics.ResultError)
		return models.Employee{}, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "employee created", "id", saved.ID)
	s.record("create", metrics.ResultSuccess)
	return saved, nil
}

// Update replaces the employee stored under identifier with the given one.
// The id of the argument is overwritten with identifier. Nothing is written
// when no employee with that id exists.
func (s *Staff) Update(ctx context.Context, employee models.Employee, identifier int) (models.Employee, bool, error) {
	const opn = "Employee.Update"
	log := s.initLogger(opn)

	_, found, err := IsEmployeeExists(ctx, identifier, s.repo)
	switch {
	case err != nil:
		s.record("update", metrics.ResultError)
		return models.Employee{}, false, fmt.Errorf("%s: %w", opn, err)
	case !found:
		log.DebugContext(ctx, "employee not found, nothing to update", "id", identifier)
		s.record("update", metrics.ResultNotFound)
		return models.Employee{}, false, nil
	}

	employee.ID = identifier
	updated, err := s.repo.Save(ctx, employee)
	if err != nil {
		s.record("update", metrics.ResultError)
		return models.Employee{}, false, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "employee updated", "id", identifier)
	s.record("update", metrics.ResultSuccess)
	return updated, true, nil
}

// Delete removes the employee with the given id and returns it as it was before deletion.
// Nothing is written when no employee with that id exists.
func (s *Staff) Delete(ctx context.Context, identifier int) (models.Employee, bool, error) {
	const opn = "Employee.Delete"
	log := s.initLogger(opn)

	existing, found, err := IsEmployeeExists(ctx, identifier, s.repo)
	switch {
	case err != nil:
		s.record("delete", metrics.ResultError)
		return models.Employee{}, false, fmt.Errorf("%s: %w", opn, err)
	case !found:
		log.DebugContext(ctx, "employee not found, nothing to delete", "id", identifier)
		s.record("delete", metrics.ResultNotFound)
		return models.Employee{}, false, nil
	}

	if err = s.repo.DeleteByID(ctx, identifier); err != nil {
		s.record("delete", metrics.ResultError)
		return models.Employee{}, false, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "employee deleted", "id", identifier)
	s.record("delete", metrics.ResultSuccess)
	return existing, true, nil
}

// IsEmployeeExists checks if an employee with the given ID exists in the repository.
// Absence is reported through the boolean; only store failures are returned as errors.
func IsEmployeeExists(
	ctx context.Context,
	employeeID int,
	repo repository.EmployeeRepoIface,
) (models.Employee, bool, error) {
	employee, err := repo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return models.Employee{}, false, nil
		}
		return models.Employee{}, false, err
	}

	return employee, true, nil
}

func (s *Staff) record(operation, result string) {
	s.metrics.EmployeeOperations.WithLabelValues(operation, result).Inc()
}

func nonNil(employees []models.Employee) []models.Employee {
	if employees == nil {
		return []models.Employee{}
	}
	return employees
}
