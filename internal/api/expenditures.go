package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/arsenal/internal/store"
)

// ExpendituresHandler records consumed stock.
type ExpendituresHandler struct {
	*ledgerWriter
}

type createExpenditureRequest struct {
	AssetID  int64  `json:"assetId"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// Create handles POST /api/expenditures.
func (h *ExpendituresHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExpenditureRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	m, err := store.RecordExpenditure(ctx, h.DB, actorFrom(r), req.AssetID, req.Quantity, req.Reason)
	if respond(h.ledgerWriter, w, r, "record expenditure", "expenditure.recorded", http.StatusCreated, m, err) {
		slog.Info("expenditure recorded", "user", actorFrom(r).Username, "asset", m.Data.AssetID,
			"base", m.Data.BaseID, "quantity", m.Data.Quantity)
	}
}

// List handles GET /api/expenditures.
func (h *ExpendituresHandler) List(w http.ResponseWriter, r *http.Request) {
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

	page, err := store.ListExpenditures(r.Context(), h.DB, store.ExpenditureFilter{PageQuery: pq, BaseID: baseID})
	if err != nil {
		writeStoreError(w, r, "list expenditures", err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}
