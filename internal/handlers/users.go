package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/alfagnish/users-api/internal/models"
	"github.com/alfagnish/users-api/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	usersPath    = "/api/users"
	maxBodyBytes = 1 << 20
)

// UserService is the set of user operations the handler needs.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	Create(ctx context.Context, in users.Input) (models.User, error)
	Update(ctx context.Context, id string, in users.Input) (models.User, error)
	Delete(ctx context.Context, id string) error
}

// UsersHandler serves the CRUD endpoints of the users collection.
type UsersHandler struct {
	svc UserService
	log logrus.FieldLogger
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(svc UserService, log logrus.FieldLogger) *UsersHandler {
	return &UsersHandler{svc: svc, log: log}
}

// Routes registers the user routes on the given chi router. Paths are
// absolute so that /api/users and /api/users/ stay distinct.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get(usersPath, h.List)
	r.Post(usersPath, h.Create)

	// empty id
	r.HandleFunc(usersPath+"/", h.InvalidUserID)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUserID)
		r.Get(usersPath+"/{id}", h.Get)
		r.Put(usersPath+"/{id}", h.Update)
		r.Delete(usersPath+"/{id}", h.Delete)
	})
}

// requireUserID rejects requests whose {id} is not a UUID before any
// storage access happens.
func (h *UsersHandler) requireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validUserID(chi.URLParam(r, "id")) {
			writeError(w, errInvalidUserID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validUserID accepts only the canonical hyphenated 36-character form.
func validUserID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// List returns all users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// Create adds a new user from the request body.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeInput(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Get returns a single user by id.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update overwrites the fields present in the request body.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeInput(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Delete removes a user by id.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNoContent)
}

// InvalidUserID answers every method on /api/users/ with an empty id.
func (h *UsersHandler) InvalidUserID(w http.ResponseWriter, r *http.Request) {
	writeError(w, errInvalidUserID)
}

// NotFound handles unmatched paths. Anything below /api/users/ carries an id
// that cannot be a UUID (e.g. it contains a slash).
func (h *UsersHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, usersPath+"/") {
		writeError(w, errInvalidUserID)
		return
	}
	writeError(w, errEndpointNotFound)
}

// MethodNotAllowed handles known paths with an unsupported method. An
// invalid id still takes precedence.
func (h *UsersHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if id, ok := strings.CutPrefix(r.URL.Path, usersPath+"/"); ok && !validUserID(id) {
		writeError(w, errInvalidUserID)
		return
	}
	writeError(w, errMethodNotAllowed)
}

func (h *UsersHandler) decodeInput(w http.ResponseWriter, r *http.Request) (users.Input, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return users.Input{}, err
	}
	return users.ParseInput(body)
}

// fail maps an operation error onto the error vocabulary. Anything not
// recognized is logged and reported as an internal error.
func (h *UsersHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidInput):
		writeError(w, errInvalidInput)
	case errors.Is(err, users.ErrNotFound):
		writeError(w, errUserNotFound)
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, errInternal)
	}
}
