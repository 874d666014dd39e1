// Package handler exposes the stock ledger over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kitstock/internal/address"
	"kitstock/internal/ledger"
	"kitstock/internal/transport/http/shared"
	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/httputil"
)

// Handler handles stock ledger endpoints.
type Handler struct {
	svc    *ledger.Service
	logger *slog.Logger
}

func New(svc *ledger.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the ledger routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Post("/receive", h.handleReceive)
		r.Post("/withdraw", h.handleWithdraw)
		r.Get("/line", h.handleGetLine)
	})
	r.Get("/scenarios/{scenario}/stock", h.handleListScenario)
}

type movementRequest struct {
	Address  shared.AddressPayload `json:"address"`
	Quantity int                   `json:"quantity"`
}

type linePayload struct {
	Address shared.AddressPayload `json:"address"`
	QtyIn   int                   `json:"qty_in"`
	QtyOut  int                   `json:"qty_out"`
	Final   int                   `json:"final"`
}

func lineResponse(l ledger.StockLine) linePayload {
	return linePayload{
		Address: shared.FromAddress(l.Address),
		QtyIn:   l.QtyIn,
		QtyOut:  l.QtyOut,
		Final:   l.Final(),
	}
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.svc.Receive)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.svc.Withdraw)
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, addr address.StockAddress, qty int) (ledger.StockLine, error)) {
	ctx := r.Context()

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := req.Address.ToAddress()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	line, err := apply(ctx, addr, req.Quantity)
	if err != nil {
		h.logger.WarnContext(ctx, "movement rejected", "address", addr.Encode(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lineResponse(line))
}

func (h *Handler) handleGetLine(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("address")
	addr, err := address.Decode(encoded)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	line, err := h.svc.Get(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lineResponse(line))
}

func (h *Handler) handleListScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := strconv.Atoi(chi.URLParam(r, "scenario"))
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid scenario id"))
		return
	}
	lines, err := h.svc.ListScenario(r.Context(), scenarioID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]linePayload, len(lines))
	for i, l := range lines {
		out[i] = lineResponse(l)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
