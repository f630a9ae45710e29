package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/arsenal/internal/model"
	"github.com/erazemk/arsenal/internal/store"
)

// AssignmentsHandler issues equipment to people and takes it back.
type AssignmentsHandler struct {
	*ledgerWriter
}

type createAssignmentRequest struct {
	BaseID             int64  `json:"baseId"`
	AssetID            int64  `json:"assetId"`
	Quantity           int    `json:"quantity"`
	AssignedTo         string `json:"assignedTo"`
	AssignmentDate     date   `json:"assignmentDate"`
	ExpectedReturnDate date   `json:"expectedReturnDate"`
	Notes              string `json:"notes"`
}

// Create handles POST /api/assignments.
func (h *AssignmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	m, err := store.CreateAssignment(ctx, h.DB, actorFrom(r), store.AssignmentInput{
		AssetID:            req.AssetID,
		BaseID:             req.BaseID,
		AssignedTo:         req.AssignedTo,
		Quantity:           req.Quantity,
		AssignmentDate:     req.AssignmentDate.Time,
		ExpectedReturnDate: req.ExpectedReturnDate.ptr(),
		Notes:              req.Notes,
	})
	if respond(h.ledgerWriter, w, r, "create assignment", "assignment.created", http.StatusCreated, m, err) {
		slog.Info("equipment assigned", "user", actorFrom(r).Username, "assignment", m.Data.ID,
			"asset", m.Data.AssetID, "assigned_to", m.Data.AssignedTo, "quantity", m.Data.Quantity)
	}
}

// Return handles PUT /api/assignments/{id}/return.
func (h *AssignmentsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	m, err := store.ReturnAssignment(ctx, h.DB, actorFrom(r), id)
	if respond(h.ledgerWriter, w, r, "return assignment", "assignment.returned", http.StatusOK, m, err) {
		slog.Info("equipment returned", "user", actorFrom(r).Username, "assignment", id, "quantity", m.Data.Quantity)
	}
}

// Get handles GET /api/assignments/{id}.
func (h *AssignmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	a, err := store.GetAssignment(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "get assignment", err)
		return
	}
	if a == nil {
		jsonError(w, http.StatusNotFound, "assignment not found")
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// List handles GET /api/assignments. status=completed is accepted as a
// synonym for returned.
func (h *AssignmentsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	status := r.URL.Query().Get("status")
	if status == "completed" {
		status = model.AssignmentStatusReturned
	}

	page, err := store.ListAssignments(r.Context(), h.DB, store.AssignmentFilter{
		PageQuery: pq,
		Status:    status,
		BaseID:    baseID,
	})
	if err != nil {
		writeStoreError(w, r, "list assignments", err)
		return
	}
	jsonResponse(w, http.StatusOK, assignmentList{
		Assignments:      page.Items,
		TotalAssignments: page.Total,
		Page:             page.Page,
		Limit:            page.Limit,
	})
}

type assignmentList struct {
	Assignments      []model.Assignment `json:"assignments"`
	TotalAssignments int                `json:"totalAssignments"`
	Page             int                `json:"page"`
	Limit            int                `json:"limit"`
}
