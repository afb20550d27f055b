package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UnknownOlympus/employees-api/internal/metrics"
	"github.com/UnknownOlympus/employees-api/internal/models"
	"github.com/UnknownOlympus/employees-api/internal/server"
	mocks "github.com/UnknownOlympus/employees-api/mock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var mikeSmith = models.Employee{ID: 1, Name: "Mike", Surname: "Smith", Department: "IT", Salary: 1000}

func newTestRouter(t *testing.T) (http.Handler, *mocks.EmployeeService, *metrics.Metrics) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := mocks.NewEmployeeService(t)
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	handler := server.NewEmployeeHandler(service, logger)

	return server.NewRouter(logger, handler, appMetrics, []string{"*"}), service, appMetrics
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) server.ErrorResponse {
	t.Helper()

	var body server.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	return body
}

func TestListAllEmployees(t *testing.T) {
	t.Parallel()

	t.Run("status 200 and employees returned", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("ListAll", mock.Anything).Return([]models.Employee{
			{ID: 1, Name: "John", Surname: "Miller", Department: "HR", Salary: 1000},
			{ID: 2, Name: "Maria", Surname: "Brown", Department: "IT", Salary: 1200},
		}, nil).Once()

		rr := do(router, http.MethodGet, "/api/employees", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `[
			{"id":1,"name":"John","surname":"Miller","department":"HR","salary":1000},
			{"id":2,"name":"Maria","surname":"Brown","department":"IT","salary":1200}
		]`, rr.Body.String())
	})

	t.Run("empty store gives empty array", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("ListAll", mock.Anything).Return([]models.Employee{}, nil)

		rr := do(router, http.MethodGet, "/api/employees", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("store failure gives 500 without leaking the cause", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("ListAll", mock.Anything).Return(nil, assert.AnError)

		rr := do(router, http.MethodGet, "/api/employees", "")

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "An unexpected error occurred", body.Message)
		assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
	})
}

func TestGetEmployee(t *testing.T) {
	t.Parallel()

	t.Run("status 200 and employee returned", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Get", mock.Anything, 1).Return(mikeSmith, true, nil).Once()

		rr := do(router, http.MethodGet, "/api/employees/1", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t,
			`{"id":1,"name":"Mike","surname":"Smith","department":"IT","salary":1000}`, rr.Body.String())
	})

	t.Run("status 404 for a missing employee", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Get", mock.Anything, 99).Return(models.Employee{}, false, nil)

		rr := do(router, http.MethodGet, "/api/employees/99", "")

		require.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Entity with ID = 99 not found", body.Message)
		assert.Equal(t, http.StatusNotFound, body.Status)
		assert.Equal(t, "Not Found", body.Error)
		assert.Equal(t, "/api/employees/99", body.Path)
	})

	t.Run("status 400 for a non-integer id", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)

		rr := do(router, http.MethodGet, "/api/employees/abc", "")

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid employee ID: abc", decodeError(t, rr).Message)
		service.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("status 400 for an id wider than the id column", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rr := do(router, method, "/api/employees/9999999999", `{}`)

			require.Equal(t, http.StatusBadRequest, rr.Code, method)
			assert.Equal(t, "Invalid employee ID: 9999999999", decodeError(t, rr).Message, method)
		}
		service.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		service.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		service.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestListAllEmployeesByName(t *testing.T) {
	t.Parallel()

	t.Run("status 200 with matches", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("ListByName", mock.Anything, "Mike").Return([]models.Employee{mikeSmith}, nil)

		rr := do(router, http.MethodGet, "/api/employees/name/Mike", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t,
			`[{"id":1,"name":"Mike","surname":"Smith","department":"IT","salary":1000}]`, rr.Body.String())
	})

	t.Run("status 200 with an empty array when nothing matches", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("ListByName", mock.Anything, "Nobody").Return([]models.Employee{}, nil)

		rr := do(router, http.MethodGet, "/api/employees/name/Nobody", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})
}

func TestCreateEmployee(t *testing.T) {
	t.Parallel()

	t.Run("status 201 and persisted employee returned", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		input := models.Employee{Name: "Nick", Surname: "Taylor", Department: "HR", Salary: 555}
		persisted := input
		persisted.ID = 4
		service.On("Create", mock.Anything, input).Return(persisted, nil).Once()

		rr := do(router, http.MethodPost, "/api/employees",
			`{"name":"Nick","surname":"Taylor","department":"HR","salary":555}`)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t,
			`{"id":4,"name":"Nick","surname":"Taylor","department":"HR","salary":555}`, rr.Body.String())
	})

	t.Run("status 400 for a malformed body", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)

		rr := do(router, http.MethodPost, "/api/employees", `{"name":`)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request body", decodeError(t, rr).Message)
		service.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("status 400 for a salary of the wrong type", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newTestRouter(t)

		rr := do(router, http.MethodPost, "/api/employees", `{"name":"Nick","salary":"a lot"}`)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("status 400 for a salary wider than the salary column", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)

		rr := do(router, http.MethodPost, "/api/employees", `{"name":"Nick","salary":9999999999}`)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request body", decodeError(t, rr).Message)
		service.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("status 201 for the largest salary the column holds", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		input := models.Employee{Name: "Nick", Salary: 2147483647}
		service.On("Create", mock.Anything, input).Return(input, nil).Once()

		rr := do(router, http.MethodPost, "/api/employees", `{"name":"Nick","salary":2147483647}`)

		require.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("status 500 on store failure", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Create", mock.Anything, mock.Anything).Return(models.Employee{}, assert.AnError)

		rr := do(router, http.MethodPost, "/api/employees", `{"name":"Nick"}`)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestUpdateEmployee(t *testing.T) {
	t.Parallel()

	t.Run("status 200 and updated employee returned", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Update", mock.Anything, models.Employee{}, 1).Return(mikeSmith, true, nil).Once()

		rr := do(router, http.MethodPut, "/api/employees/1", `{}`)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t,
			`{"id":1,"name":"Mike","surname":"Smith","department":"IT","salary":1000}`, rr.Body.String())
	})

	t.Run("status 404 for a missing employee", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Update", mock.Anything, models.Employee{}, 99).Return(models.Employee{}, false, nil)

		rr := do(router, http.MethodPut, "/api/employees/99", `{}`)

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Entity with ID = 99 not found", decodeError(t, rr).Message)
	})

	t.Run("status 400 for a non-integer id", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)

		rr := do(router, http.MethodPut, "/api/employees/x1", `{}`)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		service.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("status 400 for a body id wider than the id column", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)

		rr := do(router, http.MethodPut, "/api/employees/1", `{"id":9999999999,"name":"Nick"}`)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		service.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteEmployee(t *testing.T) {
	t.Parallel()

	t.Run("status 200 and deleted employee returned", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Delete", mock.Anything, 1).Return(mikeSmith, true, nil).Once()

		rr := do(router, http.MethodDelete, "/api/employees/1", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t,
			`{"id":1,"name":"Mike","surname":"Smith","department":"IT","salary":1000}`, rr.Body.String())
	})

	t.Run("status 404 for a missing employee", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Delete", mock.Anything, 99).Return(models.Employee{}, false, nil)

		rr := do(router, http.MethodDelete, "/api/employees/99", "")

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Entity with ID = 99 not found", decodeError(t, rr).Message)
	})

	t.Run("status 500 on store failure", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.On("Delete", mock.Anything, 1).Return(models.Employee{}, false, assert.AnError)

		rr := do(router, http.MethodDelete, "/api/employees/1", "")

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestRouter_UnknownRoutes(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)

	rr := do(router, http.MethodGet, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "/api/unknown", decodeError(t, rr).Path)

	rr = do(router, http.MethodPatch, "/api/employees/1", `{}`)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method PATCH is not supported", decodeError(t, rr).Message)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestRouter_RecordsMetricsPerRoute(t *testing.T) {
	t.Parallel()

	router, service, appMetrics := newTestRouter(t)
	service.On("Get", mock.Anything, 99).Return(models.Employee{}, false, nil)

	do(router, http.MethodGet, "/api/employees/99", "")

	assert.InDelta(t, 1, testutil.ToFloat64(
		appMetrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/employees/{empId}", "404")), 0)
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	router, service, _ := newTestRouter(t)
	service.On("ListAll", mock.Anything).Run(func(_ mock.Arguments) {
		panic("boom")
	}).Return(nil, nil)

	rr := do(router, http.MethodGet, "/api/employees", "")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
