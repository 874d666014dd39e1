// Package handler exposes scenario management over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kitstock/internal/scenario"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/httputil"
)

// Handler handles scenario endpoints.
type Handler struct {
	svc    *scenario.Service
	logger *slog.Logger
}

func New(svc *scenario.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the scenario routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/scenarios", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{scenario}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/activate", h.handleActivate)
			r.Post("/deactivate", h.handleDeactivate)
		})
	})
}

type scenarioPayload struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req scenarioPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.svc.Create(ctx, scenario.Scenario{ID: req.ID, Name: req.Name, Active: req.Active})
	if err != nil {
		h.logger.WarnContext(ctx, "create scenario rejected", "id", req.ID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, scenarioPayload(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]scenarioPayload, len(scenarios))
	for i, sc := range scenarios {
		out[i] = scenarioPayload(sc)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) scenarioID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "scenario"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid scenario id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scenarioID(w, r)
	if !ok {
		return
	}
	sc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, scenarioPayload(sc))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scenarioID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Activate(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scenarioID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
