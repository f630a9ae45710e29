package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/arsenal/internal/model"
	"github.com/erazemk/arsenal/internal/store"
)

// TransfersHandler handles transfer requests and their decisions.
type TransfersHandler struct {
	*ledgerWriter

	// RequireReceipt makes approval stop at approved; stock moves when the
	// destination confirms receipt.
	RequireReceipt bool
}

type requestTransferRequest struct {
	FromBaseID      int64  `json:"fromBaseId"`
	ToBaseID        int64  `json:"toBaseId"`
	EquipmentTypeID int64  `json:"equipmentTypeId"`
	Quantity        int    `json:"quantity"`
	TransferDate    date   `json:"transferDate"`
	Notes           string `json:"notes"`
}

// Request handles POST /api/transfers/request. The quantity is reserved at the
// source base until the transfer is decided.
func (h *TransfersHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	m, err := store.RequestTransfer(ctx, h.DB, actorFrom(r), store.TransferInput{
		FromBaseID:      req.FromBaseID,
		ToBaseID:        req.ToBaseID,
		EquipmentTypeID: req.EquipmentTypeID,
		Quantity:        req.Quantity,
		TransferDate:    req.TransferDate.Time,
		Notes:           req.Notes,
	})
	if respond(h.ledgerWriter, w, r, "request transfer", "transfer.requested", http.StatusCreated, m, err) {
		h.Metrics.RecordTransfer(m.Data.Status)
		slog.Info("transfer requested", "user", actorFrom(r).Username, "transfer", m.Data.ID,
			"from", m.Data.FromBase.Name, "to", m.Data.ToBase.Name, "quantity", m.Data.Quantity)
	}
}

type transferDecision func(ctx context.Context, db *sql.DB, actor model.Actor, id int64) (*model.Mutation[*model.Transfer], error)

// decide runs one transfer transition and reports the resulting status.
func (h *TransfersHandler) decide(w http.ResponseWriter, r *http.Request, action string, fn transferDecision) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	m, err := fn(ctx, h.DB, actorFrom(r), id)
	var typ string
	if m != nil {
		typ = "transfer." + m.Data.Status
	}
	if respond(h.ledgerWriter, w, r, action, typ, http.StatusOK, m, err) {
		h.Metrics.RecordTransfer(m.Data.Status)
		slog.Info("transfer "+m.Data.Status, "user", actorFrom(r).Username, "transfer", id,
			"quantity", m.Data.Quantity)
	}
}

// Approve handles PUT /api/transfers/{id}/approve.
func (h *TransfersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve transfer", func(ctx context.Context, db *sql.DB, actor model.Actor, id int64) (*model.Mutation[*model.Transfer], error) {
		return store.ApproveTransfer(ctx, db, actor, id, h.RequireReceipt)
	})
}

// Reject handles PUT /api/transfers/{id}/reject.
func (h *TransfersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject transfer", store.RejectTransfer)
}

// Complete handles PUT /api/transfers/{id}/complete.
func (h *TransfersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "complete transfer", store.CompleteTransfer)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	t, err := store.GetTransfer(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "get transfer", err)
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	pq, err := pageQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	baseID, err := queryID(r, "baseId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	page, err := store.ListTransfers(r.Context(), h.DB, store.TransferFilter{
		PageQuery: pq,
		SortBy:    q.Get("sortBy"),
		Order:     q.Get("order"),
		Status:    q.Get("status"),
		BaseID:    baseID,
	})
	if err != nil {
		writeStoreError(w, r, "list transfers", err)
		return
	}
	jsonResponse(w, http.StatusOK, transferList{
		Transfers:      page.Items,
		TotalTransfers: page.Total,
		Page:           page.Page,
		Limit:          page.Limit,
	})
}

type transferList struct {
	Transfers      []model.Transfer `json:"transfers"`
	TotalTransfers int              `json:"totalTransfers"`
	Page           int              `json:"page"`
	Limit          int              `json:"limit"`
}
