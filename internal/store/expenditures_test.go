package store

import (
	"errors"
	"testing"

	"github.com/erazemk/arsenal/internal/model"
)

func TestRecordExpenditureConsumes(t *testing.T) {
	f := newFixture(t, 10)

	m, err := RecordExpenditure(f.ctx, f.db, commanderOf(f.alpha.ID), f.asset.ID, 4, "live fire exercise")
	if err != nil {
		t.Fatalf("RecordExpenditure: %v", err)
	}
	if m.Data.Quantity != 4 || m.Data.Reason != "live fire exercise" {
		t.Errorf("unexpected expenditure: %+v", m.Data)
	}
	if len(m.Events) != 1 || m.Events[0].Kind != model.LedgerConsume || m.Events[0].DeltaTotal != -4 {
		t.Errorf("expected one consume event, got %+v", m.Events)
	}
	f.expectStock(t, f.alpha.ID, 6, 6, 0)
}

func TestRecordExpenditureOnlyFromAvailable(t *testing.T) {
	f := newFixture(t, 5)
	if _, err := CreateAssignment(f.ctx, f.db, adminActor, AssignmentInput{
		AssetID: f.asset.ID, AssignedTo: "A", Quantity: 4,
	}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	// Reserved stock cannot be expended.
	if _, err := RecordExpenditure(f.ctx, f.db, adminActor, f.asset.ID, 2, ""); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	f.expectStock(t, f.alpha.ID, 5, 1, 4)

	page, _ := ListExpenditures(f.ctx, f.db, ExpenditureFilter{})
	if page.Total != 0 {
		t.Errorf("expected no stored expenditure, got %d", page.Total)
	}
}

func TestRecordExpenditureRejects(t *testing.T) {
	f := newFixture(t, 5)

	if _, err := RecordExpenditure(f.ctx, f.db, officerAt(f.alpha.ID), f.asset.ID, 1, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := RecordExpenditure(f.ctx, f.db, adminActor, f.asset.ID, 0, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := RecordExpenditure(f.ctx, f.db, adminActor, 404, 1, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	f.expectStock(t, f.alpha.ID, 5, 5, 0)
}

func TestRecordExpenditureDecommissionedAsset(t *testing.T) {
	f := newFixture(t, 5)
	dead, err := CreateAsset(f.ctx, f.db, adminActor, AssetInput{
		BaseID: f.alpha.ID, EquipmentTypeID: f.rifles.ID, Name: "Scrap", SerialNumber: "OLD-1",
		Status: model.AssetStatusDecommissioned, Quantity: 3,
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	// The live lot's stock must not be reachable through a written-off asset.
	if _, err := RecordExpenditure(f.ctx, f.db, adminActor, dead.Data.ID, 3, "scrapped"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	f.expectStock(t, f.alpha.ID, 5, 5, 0)
	if n := f.countEvents(t); n != 1 {
		t.Errorf("expected only the receive event, got %d", n)
	}
}

func TestListExpendituresByBase(t *testing.T) {
	f := newFixture(t, 5)
	bravoAsset := f.register(t, f.bravo.ID, 5)

	RecordExpenditure(f.ctx, f.db, adminActor, f.asset.ID, 1, "")
	RecordExpenditure(f.ctx, f.db, adminActor, f.asset.ID, 1, "")
	RecordExpenditure(f.ctx, f.db, adminActor, bravoAsset.ID, 2, "")

	page, err := ListExpenditures(f.ctx, f.db, ExpenditureFilter{BaseID: f.alpha.ID})
	if err != nil {
		t.Fatalf("ListExpenditures: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 at alpha, got %d", page.Total)
	}
	for _, x := range page.Items {
		if x.BaseName != "Alpha" {
			t.Errorf("expected alpha expenditure, got %q", x.BaseName)
		}
	}
}
