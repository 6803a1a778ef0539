package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, primary generation.RawGenerator) http.Handler {
	t.Helper()
	svc, err := service.NewTaskService(testdb.NewSQLiteStore(t), generation.NewEngine(primary, nil), 0, nil)
	require.NoError(t, err)
	return mountTasks(NewTaskHandler(svc, 3, nil))
}

func mountTasks(h *TaskHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(nil))
	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Post("/autogen", h.Autogenerate)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Patch("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) TaskResponse {
	t.Helper()
	var task TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task), w.Body.String())
	return task
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	w := do(t, h, http.MethodPost, "/api/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeTask(t, w)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Completed)
	assert.Nil(t, created.Description)
	assert.Contains(t, w.Body.String(), `"description":null`)

	w = do(t, h, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = do(t, h, http.MethodPatch, "/api/tasks/1", `{"completed":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeTask(t, w)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)

	w = do(t, h, http.MethodPut, "/api/tasks/1", `{"description":"2%"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated = decodeTask(t, w)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "2%", *updated.Description)
	assert.True(t, updated.Completed, "PUT is partial too")

	w = do(t, h, http.MethodGet, "/api/tasks/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, updated.Title, decodeTask(t, w).Title)

	w = do(t, h, http.MethodDelete, "/api/tasks/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decodeError(t, w).Error)
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	t.Parallel()

	w := do(t, newTestRouter(t, nil), http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCreateTask_BadRequests(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing title", body: `{}`, field: "title"},
		{name: "blank title", body: `{"title":"   "}`, field: "title"},
		{name: "malformed json", body: `{"title":`},
		{name: "empty body", body: ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/tasks", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.TraceID)
			assert.Equal(t, tc.field, resp.Field)
		})
	}

	w := do(t, h, http.MethodGet, "/api/tasks", "")
	assert.JSONEq(t, `[]`, w.Body.String(), "no task is stored by a rejected create")
}

func TestUpdateTask_BadRequests(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/tasks", `{"title":"Keep"}`).Code)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/api/tasks/abc", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/tasks/1.5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/api/tasks/1", `{"title":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/api/tasks/1", `{"title":null}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/api/tasks/1", `{"completed":"yes"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPatch, "/api/tasks/99", `{"completed":true}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/tasks/99", "").Code)

	w := do(t, h, http.MethodGet, "/api/tasks/1", "")
	assert.Equal(t, "Keep", decodeTask(t, w).Title)
}

func TestNonPositiveIDsAreNotFound(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	for _, id := range []string{"0", "-1"} {
		path := "/api/tasks/" + id
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, path, "").Code, path)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPatch, path, `{"completed":true}`).Code, path)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, path, "").Code, path)
	}
}

func TestLongInputsAreAccepted(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	title := strings.Repeat("t", 501)
	w := do(t, h, http.MethodPost, "/api/tasks", `{"title":"`+title+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, title, decodeTask(t, w).Title)

	prompt := strings.Repeat("p", 401)
	w = do(t, h, http.MethodPost, "/api/tasks/autogen", `{"prompt":"`+prompt+`","n":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tasks []TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, prompt+" - Step 1", tasks[0].Title)
}

func TestAutogenerate_Fallback(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	w := do(t, h, http.MethodPost, "/api/tasks/autogen", `{"prompt":"Launch product"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "fallback", w.Header().Get(GenerationTierHeader))

	var tasks []TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3, "n defaults to 3")
	assert.Equal(t, "Launch product - Step 1", tasks[0].Title)
	assert.Equal(t, "Launch product - Step 3", tasks[2].Title)
	for _, task := range tasks {
		assert.False(t, task.Completed)
		require.NotNil(t, task.Description)
	}
}

func TestAutogenerate_Primary(t *testing.T) {
	t.Parallel()
	primary := generation.RawGeneratorFunc(func(_ context.Context, _ string, n int) (string, error) {
		return `[{"title":"Outline"},{"title":"Draft","description":"first pass"},{"title":"Edit"}]`, nil
	})
	h := newTestRouter(t, primary)

	w := do(t, h, http.MethodPost, "/api/tasks/autogen", `{"prompt":"Write essay","n":2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "primary", w.Header().Get(GenerationTierHeader))

	var tasks []TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "Outline", tasks[0].Title)
	assert.Equal(t, "first pass", *tasks[1].Description)
}

func TestAutogenerate_PrimaryFailureIsInvisible(t *testing.T) {
	t.Parallel()
	primary := generation.RawGeneratorFunc(func(context.Context, string, int) (string, error) {
		return "", errors.New("quota exceeded")
	})
	h := newTestRouter(t, primary)

	w := do(t, h, http.MethodPost, "/api/tasks/autogen", `{"prompt":"Plan trip","n":4}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "fallback", w.Header().Get(GenerationTierHeader))
	assert.NotContains(t, w.Body.String(), "quota")
}

func TestAutogenerate_InvalidRequests(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	for _, body := range []string{
		`{}`,
		`{"prompt":""}`,
		`{"prompt":"   "}`,
		`{"prompt":"x","n":0}`,
		`{"prompt":"x","n":-1}`,
		`{"prompt":"x","n":21}`,
		`{"prompt":"x","n":"three"}`,
	} {
		w := do(t, h, http.MethodPost, "/api/tasks/autogen", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := do(t, h, http.MethodGet, "/api/tasks", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(domain.NewValidationError("title", "is required", domain.ErrEmptyTitle)))
	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(service.ErrTaskNotFound))
	assert.Equal(t, http.StatusInternalServerError, MapErrorToStatusCode(&service.TaskServiceError{Operation: "x", Err: errors.New("db")}))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(errors.New("pq: password authentication failed")))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestHandleValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(AutogenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid prompt: required field", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))

	w := httptest.NewRecorder()
	HandleValidationError(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil)), err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "prompt", decodeError(t, w).Field)
}
