// Package handler exposes composition authoring over HTTP. It stays thin:
// decode, delegate, encode.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kitstock/internal/catalog"
	"kitstock/internal/composition"
	"kitstock/internal/treecode"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/httputil"
)

// Handler handles composition endpoints.
type Handler struct {
	svc    *composition.Service
	logger *slog.Logger
}

func New(svc *composition.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the composition routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/scenarios/{scenario}/composition", func(r chi.Router) {
		r.Post("/nodes", h.handleAddNode)
		r.Get("/export", h.handleExport)
		r.Post("/import", h.handleImport)
	})
	r.Route("/composition/nodes/{treecode}", func(r chi.Router) {
		r.Get("/", h.handleGetNode)
		r.Get("/children", h.handleListChildren)
		r.Put("/quantity", h.handleEditQuantity)
		r.Delete("/", h.handleDeleteSubtree)
		r.Post("/duplicate", h.handleDuplicate)
	})
}

type nodePayload struct {
	Scenario int    `json:"scenario"`
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	StdQty   int    `json:"std_qty"`
	Treecode string `json:"treecode"`
	Level    string `json:"level"`
}

func nodeResponse(n composition.Node) nodePayload {
	return nodePayload{
		Scenario: n.Scenario,
		Kind:     string(n.Kind),
		Code:     n.Code,
		StdQty:   n.StdQty,
		Treecode: n.Treecode.String(),
		Level:    n.Treecode.Level().String(),
	}
}

func (h *Handler) handleAddNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scenarioID, err := strconv.Atoi(chi.URLParam(r, "scenario"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid scenario id"))
		return
	}

	var req struct {
		Kind           string `json:"kind"`
		Code           string `json:"code"`
		StdQty         int    `json:"std_qty"`
		ParentTreecode string `json:"parent_treecode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	var parent *treecode.Treecode
	if req.ParentTreecode != "" {
		tc, err := treecode.Parse(req.ParentTreecode)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		parent = &tc
	}

	node, err := h.svc.AddNode(ctx, scenarioID, catalog.Kind(req.Kind), req.Code, req.StdQty, parent)
	if err != nil {
		h.logger.WarnContext(ctx, "add node rejected", "code", req.Code, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, nodeResponse(node))
}

func (h *Handler) handleGetNode(w http.ResponseWriter, r *http.Request) {
	tc, err := treecode.Parse(chi.URLParam(r, "treecode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	node, err := h.svc.Get(r.Context(), tc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nodeResponse(node))
}

func (h *Handler) handleListChildren(w http.ResponseWriter, r *http.Request) {
	tc, err := treecode.Parse(chi.URLParam(r, "treecode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	children, err := h.svc.ListChildren(r.Context(), tc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]nodePayload, len(children))
	for i, c := range children {
		out[i] = nodeResponse(c)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleEditQuantity(w http.ResponseWriter, r *http.Request) {
	tc, err := treecode.Parse(chi.URLParam(r, "treecode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req struct {
		StdQty int `json:"std_qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.svc.EditQuantity(r.Context(), tc, req.StdQty); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteSubtree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, err := treecode.Parse(chi.URLParam(r, "treecode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	deleted, err := h.svc.DeleteSubtree(ctx, tc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "subtree deleted", "treecode", tc.String(), "nodes", deleted)
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (h *Handler) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, err := treecode.Parse(chi.URLParam(r, "treecode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	source, err := h.svc.Get(ctx, tc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var copied composition.Node
	switch source.Kind {
	case catalog.KindKit:
		copied, err = h.svc.DuplicateKit(ctx, tc)
	case catalog.KindModule:
		copied, err = h.svc.DuplicateModule(ctx, tc)
	default:
		err = derrors.New(derrors.CodeValidation, "only kits and modules can be duplicated")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, nodeResponse(copied))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := strconv.Atoi(chi.URLParam(r, "scenario"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid scenario id"))
		return
	}
	rows, err := h.svc.Export(r.Context(), scenarioID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scenarioID, err := strconv.Atoi(chi.URLParam(r, "scenario"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid scenario id"))
		return
	}
	var rows []composition.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	nodes, err := h.svc.Import(ctx, scenarioID, rows)
	if err != nil {
		h.logger.WarnContext(ctx, "import rejected", "scenario", scenarioID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]nodePayload, len(nodes))
	for i, n := range nodes {
		out[i] = nodeResponse(n)
	}
	httputil.WriteJSON(w, http.StatusCreated, out)
}
