// Package handler exposes reconciliation sessions over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kitstock/internal/address"
	"kitstock/internal/cascade"
	"kitstock/internal/catalog"
	"kitstock/internal/reconcile"
	"kitstock/internal/session"
	"kitstock/internal/transport/http/shared"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/httputil"
)

// Handler handles session endpoints.
type Handler struct {
	svc    *session.Service
	logger *slog.Logger
}

func New(svc *session.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the session routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Route("/{session}", func(r chi.Router) {
			r.Delete("/", h.handleEnd)
			r.Get("/rows", h.handleListRows)
			r.Post("/rows", h.handleUpsertRow)
			r.Post("/counts", h.handleEnterCount)
			r.Post("/expiry", h.handleCorrectExpiry)
			r.Post("/commit", h.handleCommit)
		})
	})
}

type rowPayload struct {
	Kind           string `json:"kind"`
	Code           string `json:"code"`
	Instance       int    `json:"instance,omitempty"`
	KitInstance    int    `json:"kit_instance,omitempty"`
	ModuleInstance int    `json:"module_instance,omitempty"`
	BaseCount      int    `json:"base_count"`
	Effective      int    `json:"effective"`
}

type zeroingPayload struct {
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Instance int    `json:"instance,omitempty"`
	Cause    string `json:"cause"`
}

func rowResponse(r cascade.Row) rowPayload {
	return rowPayload{
		Kind:           string(r.Kind),
		Code:           r.Code,
		Instance:       r.Instance,
		KitInstance:    r.KitInstance,
		ModuleInstance: r.ModuleInstance,
		BaseCount:      r.BaseCount,
		Effective:      r.Effective,
	}
}

func zeroingResponses(zeroings []cascade.Zeroing) []zeroingPayload {
	out := make([]zeroingPayload, len(zeroings))
	for i, z := range zeroings {
		out[i] = zeroingPayload{
			Kind:     string(z.Kind),
			Code:     z.Code,
			Instance: z.Instance,
			Cause:    z.Cause,
		}
	}
	return out
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Scenario int `json:"scenario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	sess, err := h.svc.Start(ctx, req.Scenario)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"scenario":   sess.Scenario,
		"operator":   sess.Operator,
		"started_at": sess.StartedAt,
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.svc.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) handleListRows(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	rows := sess.Rows()
	out := make([]rowPayload, len(rows))
	for i, row := range rows {
		out[i] = rowResponse(row)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpsertRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req rowPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	zeroings := sess.UpsertRow(cascade.Row{
		Kind:           catalog.Kind(req.Kind),
		Code:           req.Code,
		Instance:       req.Instance,
		KitInstance:    req.KitInstance,
		ModuleInstance: req.ModuleInstance,
		BaseCount:      req.BaseCount,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"zeroings": zeroingResponses(zeroings),
	})
}

func (h *Handler) handleEnterCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Address  shared.AddressPayload `json:"address"`
		Physical int                   `json:"physical"`
		Remarks  string                `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := req.Address.ToAddress()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sess.EnterCount(addr, req.Physical, req.Remarks)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCorrectExpiry(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Address shared.AddressPayload `json:"address"`
		Expiry  string                `json:"expiry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := req.Address.ToAddress()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expiry, err := address.ParseExpiry(req.Expiry)
	if err != nil {
		httputil.WriteError(w, derrors.Wrap(err, derrors.CodeMalformedAddress, "invalid expiry"))
		return
	}
	sess.CorrectExpiry(addr, expiry)
	w.WriteHeader(http.StatusNoContent)
}

type movementPayload struct {
	Address     shared.AddressPayload `json:"address"`
	Direction   string                `json:"direction"`
	Quantity    int                   `json:"quantity"`
	Discrepancy int                   `json:"discrepancy"`
	Reason      string                `json:"reason"`
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Commit(ctx, sess.ID)
	if err != nil {
		var verr *reconcile.ValidationError
		if derrors.HasCode(err, derrors.CodeValidation) && errors.As(err, &verr) {
			failures := make([]map[string]string, len(verr.Failures))
			for i, f := range verr.Failures {
				failures[i] = map[string]string{
					"address": f.Address.Encode(),
					"item":    f.Item,
					"reason":  f.Reason,
				}
			}
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    string(derrors.CodeValidation),
				"failures": failures,
			})
			return
		}
		h.logger.ErrorContext(ctx, "commit failed", "session_id", sess.ID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	movements := make([]movementPayload, len(result.Movements))
	for i, m := range result.Movements {
		direction := "OUT"
		if m.Receive {
			direction = "IN"
		}
		movements[i] = movementPayload{
			Address:     shared.FromAddress(m.Address),
			Direction:   direction,
			Quantity:    m.Quantity,
			Discrepancy: m.Discrepancy,
			Reason:      m.Reason,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"document_reference": result.DocumentReference,
		"movements":          movements,
	})
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.End(r.Context(), chi.URLParam(r, "session")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
