package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/arsenal/internal/model"
	"github.com/erazemk/arsenal/internal/store"
)

// BasesHandler handles base endpoints.
type BasesHandler struct {
	DB *sql.DB
}

type baseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// List handles GET /api/bases. The list is wrapped as {"bases": [...]}.
func (h *BasesHandler) List(w http.ResponseWriter, r *http.Request) {
	bases, err := store.ListBases(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, r, "list bases", err)
		return
	}
	if bases == nil {
		bases = []model.Base{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"bases": bases})
}

// Get handles GET /api/bases/{id}.
func (h *BasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid base id")
		return
	}

	base, err := store.GetBase(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "get base", err)
		return
	}
	if base == nil || base.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "base not found")
		return
	}
	jsonResponse(w, http.StatusOK, base)
}

// Create handles POST /api/bases.
func (h *BasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req baseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	base, err := store.CreateBase(r.Context(), h.DB, req.Name, req.Location)
	if err != nil {
		writeStoreError(w, r, "create base", err)
		return
	}

	slog.Info("base created", "user", actorFrom(r).Username, "base", base.Name)
	jsonResponse(w, http.StatusCreated, base)
}

// Update handles PUT /api/bases/{id}.
func (h *BasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid base id")
		return
	}

	var req baseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateBase(r.Context(), h.DB, id, req.Name, req.Location); err != nil {
		writeStoreError(w, r, "update base", err)
		return
	}

	base, err := store.GetBase(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "get base", err)
		return
	}
	slog.Info("base updated", "user", actorFrom(r).Username, "base", base.Name)
	jsonResponse(w, http.StatusOK, base)
}
