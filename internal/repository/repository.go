package repository

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/employees-api/internal/metrics"
	"github.com/UnknownOlympus/employees-api/internal/models"
)

// ErrEmployeeNotFound is returned when no employee row matches the requested id.
var ErrEmployeeNotFound = errors.New("employee not found")

type Repository struct {
	db      Database
	metrics *metrics.Metrics
}

// EmployeeRepoIface represents the interface for interacting with employee data in the repository.
type EmployeeRepoIface interface {
	FindByID(ctx context.Context, identifier int) (models.Employee, error)
	FindAll(ctx context.Context) ([]models.Employee, error)
	FindAllByName(ctx context.Context, name string) ([]models.Employee, error)
	Save(ctx context.Context, employee models.Employee) (models.Employee, error)
	DeleteByID(ctx context.Context, identifier int) error
}

func NewEmployeeRepository(db Database, appMetrics *metrics.Metrics) EmployeeRepoIface {
	return &Repository{db: db, metrics: appMetrics}
}
