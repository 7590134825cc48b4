package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alfagnish/users-api/internal/config"
	"github.com/alfagnish/users-api/internal/handlers"
	"github.com/alfagnish/users-api/internal/models"
	"github.com/alfagnish/users-api/internal/store"
	"github.com/alfagnish/users-api/internal/users"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	mgr      *users.Manager
	dataFile string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	dataFile := filepath.Join(t.TempDir(), "users.json")
	mgr := users.NewManager(store.NewFileStore(dataFile, logger), logger)
	cfg := &config.Config{Port: 4000, DataFile: dataFile, AllowedOrigins: []string{"*"}}

	return &testServer{
		handler:  New(cfg, mgr, logger),
		mgr:      mgr,
		dataFile: dataFile,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_EndToEnd(t *testing.T) {
	s := setupServer(t)
	require.NoError(t, s.mgr.Reset(context.Background()))

	// empty after reset
	rec := s.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	// create
	rec = s.do(t, http.MethodPost, "/api/users", map[string]interface{}{
		"username": "testuser",
		"age":      30,
		"hobbies":  []string{"reading", "gaming"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.User](t, rec)
	_, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", created.Username)
	assert.Equal(t, 30, created.Age)
	assert.Equal(t, []string{"reading", "gaming"}, created.Hobbies)

	// get
	rec = s.do(t, http.MethodGet, "/api/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[models.User](t, rec))

	// list contains it
	rec = s.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.User{created}, decode[[]models.User](t, rec))

	// update
	rec = s.do(t, http.MethodPut, "/api/users/"+created.ID, map[string]interface{}{
		"username": "updateduser",
		"age":      35,
		"hobbies":  []string{"traveling"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.User{
		ID:       created.ID,
		Username: "updateduser",
		Age:      35,
		Hobbies:  []string{"traveling"},
	}, decode[models.User](t, rec))

	// delete
	rec = s.do(t, http.MethodDelete, "/api/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	// gone
	rec = s.do(t, http.MethodGet, "/api/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())

	// deleting again is a 404, not a crash
	rec = s.do(t, http.MethodDelete, "/api/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())
}

func TestServer_CreateRequiresAllFields(t *testing.T) {
	s := setupServer(t)

	bodies := []map[string]interface{}{
		{"age": 30, "hobbies": []string{}},
		{"username": "testuser", "hobbies": []string{}},
		{"username": "testuser", "age": 30},
		{"username": "", "age": 30, "hobbies": []string{}},
		{"username": "testuser", "age": 30, "hobbies": "reading"},
	}
	for _, body := range bodies {
		rec := s.do(t, http.MethodPost, "/api/users", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%v", body)
		assert.JSONEq(t, `{"message":"Invalid input"}`, rec.Body.String())
	}

	rec := s.do(t, http.MethodGet, "/api/users", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_PartialUpdate(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, http.MethodPost, "/api/users", map[string]interface{}{
		"username": "testuser", "age": 30, "hobbies": []string{"reading"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.User](t, rec)

	// hobbies alone are applied even without a username
	rec = s.do(t, http.MethodPut, "/api/users/"+created.ID, map[string]interface{}{
		"hobbies": []string{"climbing"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.User{ID: created.ID, Username: "testuser", Age: 30, Hobbies: []string{"climbing"}},
		decode[models.User](t, rec))

	// age 0 is a value, not an absence
	rec = s.do(t, http.MethodPut, "/api/users/"+created.ID, map[string]interface{}{"age": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[models.User](t, rec).Age)

	// nothing recognized
	rec = s.do(t, http.MethodPut, "/api/users/"+created.ID, map[string]interface{}{"nickname": "tu"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid input"}`, rec.Body.String())

	// unknown id
	rec = s.do(t, http.MethodPut, "/api/users/"+uuid.NewString(), map[string]interface{}{"age": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_InvalidIDHasNoSideEffects(t *testing.T) {
	s := setupServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := s.do(t, method, "/api/users/not-a-uuid", map[string]interface{}{"age": 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid user ID"}`, rec.Body.String())
	}

	// the backing file is created lazily by the first store access
	_, err := os.Stat(s.dataFile)
	assert.True(t, os.IsNotExist(err))
}

func TestServer_MalformedBody(t *testing.T) {
	s := setupServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{"username":"x",`))
	rec := httptest.NewRecorder()

	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestServer_Fallbacks(t *testing.T) {
	s := setupServer(t)

	rec := s.do(t, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Endpoint not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodPatch, "/api/users", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"message":"Method not allowed"}`, rec.Body.String())

	rec = s.do(t, http.MethodOptions, "/api/users", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := setupServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	s.handler.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type panickingService struct {
	handlers.UserService
}

func (panickingService) List(context.Context) ([]models.User, error) {
	panic("boom")
}

func TestServer_PanicBecomesInternalError(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	h := New(cfg, &panickingService{}, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())

	var recovered bool
	for _, e := range hook.AllEntries() {
		if e.Message == "recovered from panic" {
			recovered = true
		}
	}
	assert.True(t, recovered)
}
