package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/employees-api/internal/lib/logger/sl"
	"github.com/UnknownOlympus/employees-api/internal/models"
	"github.com/go-chi/chi/v5"
)

const internalErrorMessage = "An unexpected error occurred"

// errOutOfRange is returned for numeric fields that do not fit the INTEGER columns.
var errOutOfRange = errors.New("value out of range")

// EmployeeService is the set of operations the HTTP layer needs from the employee service.
type EmployeeService interface {
	ListAll(ctx context.Context) ([]models.Employee, error)
	Get(ctx context.Context, identifier int) (models.Employee, bool, error)
	ListByName(ctx context.Context, name string) ([]models.Employee, error)
	Create(ctx context.Context, employee models.Employee) (models.Employee, error)
	Update(ctx context.Context, employee models.Employee, identifier int) (models.Employee, bool, error)
	Delete(ctx context.Context, identifier int) (models.Employee, bool, error)
}

// EmployeeHandler maps the /api/employees routes onto the employee service.
// Absence reported by the service becomes a 404; the handler never looks at field values.
type EmployeeHandler struct {
	service EmployeeService
	log     *slog.Logger
}

func NewEmployeeHandler(service EmployeeService, log *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		log:     log.With(slog.String("division", "http")),
	}
}

// Routes mounts the employee endpoints on the given router.
func (h *EmployeeHandler) Routes(router chi.Router) {
	router.Get("/", h.ListAll)
	router.Post("/", h.Create)
	router.Get("/name/{name}", h.ListByName)
	router.Get("/{empId}", h.Get)
	router.Put("/{empId}", h.Update)
	router.Delete("/{empId}", h.Delete)
}

func (h *EmployeeHandler) ListAll(writer http.ResponseWriter, req *http.Request) {
	employees, err := h.service.ListAll(req.Context())
	if err != nil {
		h.internalError(writer, req, err)
		return
	}

	h.respond(writer, req, http.StatusOK, employees)
}

func (h *EmployeeHandler) Get(writer http.ResponseWriter, req *http.Request) {
	identifier, ok := h.pathID(writer, req)
	if !ok {
		return
	}

	employee, found, err := h.service.Get(req.Context(), identifier)
	h.respondFound(writer, req, identifier, employee, found, err)
}

func (h *EmployeeHandler) ListByName(writer http.ResponseWriter, req *http.Request) {
	employees, err := h.service.ListByName(req.Context(), chi.URLParam(req, "name"))
	if err != nil {
		h.internalError(writer, req, err)
		return
	}

	h.respond(writer, req, http.StatusOK, employees)
}

func (h *EmployeeHandler) Create(writer http.ResponseWriter, req *http.Request) {
	employee, ok := h.decodeEmployee(writer, req)
	if !ok {
		return
	}

	created, err := h.service.Create(req.Context(), employee)
	if err != nil {
		h.internalError(writer, req, err)
		return
	}

	h.respond(writer, req, http.StatusCreated, created)
}

func (h *EmployeeHandler) Update(writer http.ResponseWriter, req *http.Request) {
	identifier, ok := h.pathID(writer, req)
	if !ok {
		return
	}

	employee, ok := h.decodeEmployee(writer, req)
	if !ok {
		return
	}

	updated, found, err := h.service.Update(req.Context(), employee, identifier)
	h.respondFound(writer, req, identifier, updated, found, err)
}

func (h *EmployeeHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	identifier, ok := h.pathID(writer, req)
	if !ok {
		return
	}

	deleted, found, err := h.service.Delete(req.Context(), identifier)
	h.respondFound(writer, req, identifier, deleted, found, err)
}

func (h *EmployeeHandler) respondFound(
	writer http.ResponseWriter,
	req *http.Request,
	identifier int,
	employee models.Employee,
	found bool,
	err error,
) {
	switch {
	case err != nil:
		h.internalError(writer, req, err)
	case !found:
		h.fail(writer, req, http.StatusNotFound, entityNotFoundMessage(identifier))
	default:
		h.respond(writer, req, http.StatusOK, employee)
	}
}

func (h *EmployeeHandler) pathID(writer http.ResponseWriter, req *http.Request) (int, bool) {
	raw := chi.URLParam(req, "empId")
	// ids are INTEGER in the store, anything wider is rejected like a malformed id
	identifier, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		h.fail(writer, req, http.StatusBadRequest, "Invalid employee ID: "+raw)
		return 0, false
	}

	return int(identifier), true
}

func (h *EmployeeHandler) decodeEmployee(writer http.ResponseWriter, req *http.Request) (models.Employee, bool) {
	var employee models.Employee
	if err := json.NewDecoder(req.Body).Decode(&employee); err != nil {
		h.log.DebugContext(req.Context(), "Failed to decode request body", sl.Err(err))
		h.fail(writer, req, http.StatusBadRequest, "Invalid request body")
		return models.Employee{}, false
	}

	if err := checkInt32("id", employee.ID); err != nil {
		h.log.DebugContext(req.Context(), "Rejected request body", sl.Err(err))
		h.fail(writer, req, http.StatusBadRequest, "Invalid request body")
		return models.Employee{}, false
	}
	if err := checkInt32("salary", employee.Salary); err != nil {
		h.log.DebugContext(req.Context(), "Rejected request body", sl.Err(err))
		h.fail(writer, req, http.StatusBadRequest, "Invalid request body")
		return models.Employee{}, false
	}

	return employee, true
}

func checkInt32(field string, value int) error {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return fmt.Errorf("%w: %s=%d", errOutOfRange, field, value)
	}

	return nil
}

func (h *EmployeeHandler) internalError(writer http.ResponseWriter, req *http.Request, err error) {
	h.log.ErrorContext(req.Context(), "Request failed", "path", req.URL.Path, sl.Err(err))
	h.fail(writer, req, http.StatusInternalServerError, internalErrorMessage)
}

func (h *EmployeeHandler) respond(writer http.ResponseWriter, req *http.Request, status int, payload any) {
	if err := writeJSON(writer, status, payload); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write response", sl.Err(err))
	}
}

func (h *EmployeeHandler) fail(writer http.ResponseWriter, req *http.Request, status int, message string) {
	if err := writeError(writer, req, status, message); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write error response", sl.Err(err))
	}
}
