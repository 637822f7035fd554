// Package api exposes HTTP handlers for the activity registry.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/registry"
)

// Handler coordinates HTTP requests with the registry.
type Handler struct {
	registry  *registry.Registry
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
	staticDir string
}

// Option configures a Handler.
type Option func(*Handler)

// WithStaticDir serves the browser UI from dir under /static/ and redirects / to it.
func WithStaticDir(dir string) Option {
	return func(h *Handler) { h.staticDir = dir }
}

// NewHandler builds a Handler.
func NewHandler(reg *registry.Registry, log logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		registry: reg,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("GET /activities/{activity_name}", h.getActivity)
	mux.HandleFunc("POST /activities/{activity_name}/signup", h.signup)
	mux.HandleFunc("DELETE /activities/{activity_name}/unregister", h.unregister)
	mux.HandleFunc("GET /healthz", healthz)

	if h.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
		mux.HandleFunc("GET /static/index.html", h.serveIndex)
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
		})
	}
}

// serveIndex answers /static/index.html directly. http.FileServer would
// redirect it to /static/, undoing the root redirect.
func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(h.staticDir, "index.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	all := h.registry.List()
	resp := make(map[string]ActivityView, len(all))
	for name, a := range all {
		resp[name] = toActivityView(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.registry.Get(r.PathValue("activity_name"))
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ActivityDetail{
		ActivityView:   toActivityView(a),
		Name:           a.Name,
		AvailableSpots: a.Availability(),
	})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}

	msg, err := h.registry.Signup(r.Context(), r.PathValue("activity_name"), email)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}

	msg, err := h.registry.Unregister(r.Context(), r.PathValue("activity_name"), email)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (h *Handler) requireEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		h.errors.HandleHTTPError(w, r, apperrors.NewValidationError(
			"email query parameter is required", "missing email"))
		return "", false
	}
	return email, true
}

// ActivityView is the wire shape of one activity in GET /activities.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// ActivityDetail adds the name and derived availability for single-activity lookups.
type ActivityDetail struct {
	ActivityView
	Name           string `json:"name"`
	AvailableSpots int    `json:"available_spots"`
}

// MessageResponse is the body of a successful signup or unregister.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(a registry.Activity) ActivityView {
	participants := a.Participants
	if participants == nil {
		participants = []string{}
	}
	return ActivityView{
		Description:     a.Description,
		Schedule:        a.Schedule,
		MaxParticipants: a.MaxParticipants,
		Participants:    participants,
	}
}
