package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/arsenal/internal/model"
	"github.com/erazemk/arsenal/internal/store"
)

// AssetsHandler handles asset registration and stock reads.
type AssetsHandler struct {
	*ledgerWriter
}

// createAssetRequest uses the asset form's field names.
type createAssetRequest struct {
	Name            string `json:"name"`
	SerialNumber    string `json:"serial_number"`
	TypeID          int64  `json:"type_id"`
	EquipmentTypeID int64  `json:"equipment_type_id"`
	BaseID          int64  `json:"base_id"`
	Status          string `json:"status"`
	Quantity        int    `json:"quantity"`
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EquipmentTypeID == 0 {
		req.EquipmentTypeID = req.TypeID
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	m, err := store.CreateAsset(ctx, h.DB, actorFrom(r), store.AssetInput{
		BaseID:          req.BaseID,
		EquipmentTypeID: req.EquipmentTypeID,
		Name:            req.Name,
		SerialNumber:    req.SerialNumber,
		Status:          req.Status,
		Quantity:        req.Quantity,
	})
	if respond(h.ledgerWriter, w, r, "register asset", "asset.registered", http.StatusCreated, m, err) {
		slog.Info("asset registered", "user", actorFrom(r).Username, "asset", m.Data.ID,
			"serial", m.Data.SerialNumber, "base", m.Data.BaseID, "quantity", m.Data.Quantity)
	}
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	asset, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "get asset", err)
		return
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// ListByBase handles GET /api/assets/base/{baseId}.
func (h *AssetsHandler) ListByBase(w http.ResponseWriter, r *http.Request) {
	baseID, err := pathID(r, "baseId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid base id")
		return
	}

	assets, err := store.ListBaseAssets(r.Context(), h.DB, baseID)
	if err != nil {
		writeStoreError(w, r, "list assets", err)
		return
	}
	if assets == nil {
		assets = []model.BaseAsset{}
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Stock handles GET /api/stock. An optional baseId narrows it to one base.
func (h *AssetsHandler) Stock(w http.ResponseWriter, r *http.Request) {
	baseID, err := queryID(r, "baseId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	stock, err := store.ListStock(r.Context(), h.DB, baseID)
	if err != nil {
		writeStoreError(w, r, "list stock", err)
		return
	}
	if stock == nil {
		stock = []model.AssetStock{}
	}
	jsonResponse(w, http.StatusOK, stock)
}
