package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/arsenal/internal/imaging"
	"github.com/erazemk/arsenal/internal/model"
	"github.com/erazemk/arsenal/internal/store"
)

// EquipmentHandler handles equipment type ("category") endpoints.
type EquipmentHandler struct {
	DB *sql.DB
}

type createEquipmentRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// List handles GET /api/assets/categories.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListEquipmentTypes(r.Context(), h.DB, r.URL.Query().Get("category"))
	if err != nil {
		writeStoreError(w, r, "list equipment types", err)
		return
	}
	if types == nil {
		types = []model.EquipmentType{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// Create handles POST /api/assets/categories.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	et, err := store.CreateEquipmentType(r.Context(), h.DB, req.Name, req.Category)
	if err != nil {
		writeStoreError(w, r, "create equipment type", err)
		return
	}

	slog.Info("equipment type created", "user", actorFrom(r).Username, "name", et.Name, "category", et.Category)
	jsonResponse(w, http.StatusCreated, et)
}

// UploadPhoto handles PUT /api/assets/categories/{id}/photo. The photo is the
// "photo" field of a multipart form.
func (h *EquipmentHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment type id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to process photo", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to process photo")
		return
	}

	if err := store.SetEquipmentPhoto(r.Context(), h.DB, id, photo.Data, imaging.MIME); err != nil {
		writeStoreError(w, r, "save photo", err)
		return
	}

	slog.Info("equipment photo uploaded", "user", actorFrom(r).Username, "equipment_type", id,
		"width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]any{"width": photo.Width, "height": photo.Height})
}

// GetPhoto handles GET /api/assets/categories/{id}/photo.
func (h *EquipmentHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment type id")
		return
	}

	data, mime, err := store.GetEquipmentPhoto(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "get photo", err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
