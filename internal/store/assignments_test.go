package store

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/arsenal/internal/model"
)

func TestCreateAssignmentReserves(t *testing.T) {
	f := newFixture(t, 5)

	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	m, err := CreateAssignment(f.ctx, f.db, commanderOf(f.alpha.ID), AssignmentInput{
		AssetID:            f.asset.ID,
		BaseID:             f.alpha.ID,
		AssignedTo:         "Cpl. Okafor",
		Quantity:           2,
		AssignmentDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		ExpectedReturnDate: &due,
		Notes:              "range week",
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	a := m.Data
	if a.Status != model.AssignmentStatusActive {
		t.Errorf("expected active, got %q", a.Status)
	}
	if a.AssignedTo != "Cpl. Okafor" || a.Notes != "range week" {
		t.Errorf("unexpected assignment: %+v", a)
	}
	if a.Asset == nil || a.Asset.SerialNumber != f.asset.SerialNumber || a.Asset.EquipmentType.Name != "M4 Carbine" {
		t.Errorf("expected joined asset, got %+v", a.Asset)
	}
	if a.AssignedBy != nil {
		t.Errorf("actor without an account must leave assigned by empty, got %+v", a.AssignedBy)
	}
	if a.ExpectedReturnDate == nil || !a.ExpectedReturnDate.Equal(due) {
		t.Errorf("expected return date %v, got %v", due, a.ExpectedReturnDate)
	}
	if len(m.Stock) != 1 || m.Stock[0].QuantityAvailable != 3 || m.Stock[0].QuantityReserved != 2 {
		t.Errorf("unexpected stock in result: %+v", m.Stock)
	}
	f.expectStock(t, f.alpha.ID, 5, 3, 2)
}

func TestAssignmentExhaustsStock(t *testing.T) {
	f := newFixture(t, 5)

	if _, err := CreateAssignment(f.ctx, f.db, adminActor, AssignmentInput{
		AssetID: f.asset.ID, AssignedTo: "A", Quantity: 5,
	}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	events := f.countEvents(t)

	_, err := CreateAssignment(f.ctx, f.db, adminActor, AssignmentInput{
		AssetID: f.asset.ID, AssignedTo: "B", Quantity: 1,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	f.expectStock(t, f.alpha.ID, 5, 0, 5)
	if got := f.countEvents(t); got != events {
		t.Errorf("expected no new events, got %d more", got-events)
	}
	page, _ := ListAssignments(f.ctx, f.db, AssignmentFilter{})
	if page.Total != 1 {
		t.Errorf("failed assignment must not be stored, have %d", page.Total)
	}
}

func TestCreateAssignmentRejects(t *testing.T) {
	f := newFixture(t, 5)

	tests := []struct {
		name  string
		actor model.Actor
		in    AssignmentInput
		want  error
	}{
		{"zero quantity", adminActor, AssignmentInput{AssetID: f.asset.ID, AssignedTo: "A"}, ErrValidation},
		{"no assignee", adminActor, AssignmentInput{AssetID: f.asset.ID, Quantity: 1}, ErrValidation},
		{"unknown asset", adminActor, AssignmentInput{AssetID: 404, AssignedTo: "A", Quantity: 1}, ErrNotFound},
		{"wrong base", adminActor, AssignmentInput{AssetID: f.asset.ID, BaseID: f.bravo.ID, AssignedTo: "A", Quantity: 1}, ErrValidation},
		{"logistics officer", officerAt(f.alpha.ID), AssignmentInput{AssetID: f.asset.ID, AssignedTo: "A", Quantity: 1}, ErrUnauthorized},
		{"other commander", commanderOf(f.bravo.ID), AssignmentInput{AssetID: f.asset.ID, AssignedTo: "A", Quantity: 1}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateAssignment(f.ctx, f.db, tt.actor, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	f.expectStock(t, f.alpha.ID, 5, 5, 0)
}

func TestReturnAssignment(t *testing.T) {
	f := newFixture(t, 5)

	m, err := CreateAssignment(f.ctx, f.db, adminActor, AssignmentInput{
		AssetID: f.asset.ID, AssignedTo: "A", Quantity: 3,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	ret, err := ReturnAssignment(f.ctx, f.db, commanderOf(f.alpha.ID), m.Data.ID)
	if err != nil {
		t.Fatalf("ReturnAssignment: %v", err)
	}
	if ret.Data.Status != model.AssignmentStatusReturned || ret.Data.ReturnedAt == nil {
		t.Errorf("expected returned with timestamp, got %+v", ret.Data)
	}
	if len(ret.Events) != 1 || ret.Events[0].Kind != model.LedgerRelease {
		t.Errorf("expected one release event, got %+v", ret.Events)
	}
	f.expectStock(t, f.alpha.ID, 5, 5, 0)

	// A returned assignment cannot be returned again.
	if _, err := ReturnAssignment(f.ctx, f.db, adminActor, m.Data.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	f.expectStock(t, f.alpha.ID, 5, 5, 0)

	if _, err := ReturnAssignment(f.ctx, f.db, adminActor, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAssignmentsFilters(t *testing.T) {
	f := newFixture(t, 10)
	f.register(t, f.bravo.ID, 10)
	bravoAsset := f.register(t, f.bravo.ID, 1)

	for i := 0; i < 3; i++ {
		if _, err := CreateAssignment(f.ctx, f.db, adminActor, AssignmentInput{
			AssetID: f.asset.ID, AssignedTo: "Alpha squad", Quantity: 1,
		}); err != nil {
			t.Fatalf("CreateAssignment: %v", err)
		}
	}
	m, err := CreateAssignment(f.ctx, f.db, adminActor, AssignmentInput{
		AssetID: bravoAsset.ID, AssignedTo: "Bravo squad", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	if _, err := ReturnAssignment(f.ctx, f.db, adminActor, m.Data.ID); err != nil {
		t.Fatalf("ReturnAssignment: %v", err)
	}

	active, err := ListAssignments(f.ctx, f.db, AssignmentFilter{Status: model.AssignmentStatusActive})
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if active.Total != 3 {
		t.Errorf("expected 3 active, got %d", active.Total)
	}

	bravo, _ := ListAssignments(f.ctx, f.db, AssignmentFilter{BaseID: f.bravo.ID})
	if bravo.Total != 1 || bravo.Items[0].Status != model.AssignmentStatusReturned {
		t.Errorf("expected one returned bravo assignment, got %+v", bravo.Items)
	}

	paged, _ := ListAssignments(f.ctx, f.db, AssignmentFilter{PageQuery: PageQuery{Page: 2, Limit: 3}})
	if paged.Total != 4 || len(paged.Items) != 1 {
		t.Errorf("expected 1 item on page 2 of 4, got %d of %d", len(paged.Items), paged.Total)
	}

	if _, err := ListAssignments(f.ctx, f.db, AssignmentFilter{Status: "lost"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
}
