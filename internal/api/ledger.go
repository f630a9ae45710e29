package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/arsenal/internal/store"
)

// LedgerHandler serves the audit trail of stock movements.
type LedgerHandler struct {
	DB *sql.DB
}

// Events handles GET /api/ledger/events.
func (h *LedgerHandler) Events(w http.ResponseWriter, r *http.Request) {
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
	typeID, err := queryID(r, "equipmentTypeId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := store.ListLedgerEvents(r.Context(), h.DB, store.EventFilter{
		PageQuery:       pq,
		BaseID:          baseID,
		EquipmentTypeID: typeID,
	})
	if err != nil {
		writeStoreError(w, r, "list ledger events", err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// healthHandler answers GET /healthz with the database's reachability.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
