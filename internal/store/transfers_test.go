package store

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/arsenal/internal/model"
)

func (f *fixture) requestTransfer(t *testing.T, qty int) *model.Transfer {
	t.Helper()
	m, err := RequestTransfer(f.ctx, f.db, commanderOf(f.alpha.ID), TransferInput{
		FromBaseID:      f.alpha.ID,
		ToBaseID:        f.bravo.ID,
		EquipmentTypeID: f.rifles.ID,
		Quantity:        qty,
		Notes:           "rotation",
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}
	return m.Data
}

func TestTransferRequestReserves(t *testing.T) {
	f := newFixture(t, 10)

	tr := f.requestTransfer(t, 6)
	if tr.Status != model.TransferStatusPending {
		t.Errorf("expected pending, got %q", tr.Status)
	}
	if tr.FromBase.Name != "Alpha" || tr.ToBase.Name != "Bravo" || tr.EquipmentType.Name != "M4 Carbine" {
		t.Errorf("expected joined names, got %+v %+v %+v", tr.FromBase, tr.ToBase, tr.EquipmentType)
	}
	f.expectStock(t, f.alpha.ID, 10, 4, 6)
	f.expectStock(t, f.bravo.ID, 0, 0, 0)
}

func TestGetTransferReadsInsideTransaction(t *testing.T) {
	f := newFixture(t, 10)
	tr := f.requestTransfer(t, 6)

	tx, err := f.db.BeginTx(f.ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.ExecContext(f.ctx, `UPDATE transfers SET notes = 'relabelled' WHERE id = ?`, tr.ID); err != nil {
		tx.Rollback()
		t.Fatalf("updating notes: %v", err)
	}
	got, err := GetTransfer(f.ctx, tx, tr.ID)
	tx.Rollback()
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got == nil || got.Notes != "relabelled" {
		t.Fatalf("expected the uncommitted notes, got %+v", got)
	}

	got, err = GetTransfer(f.ctx, f.db, tr.ID)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got.Notes != "rotation" {
		t.Errorf("expected rolled back notes, got %q", got.Notes)
	}
}

func TestTransferApproveMovesStock(t *testing.T) {
	f := newFixture(t, 10)
	tr := f.requestTransfer(t, 6)

	m, err := ApproveTransfer(f.ctx, f.db, commanderOf(f.bravo.ID), tr.ID, false)
	if err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}
	if m.Data.Status != model.TransferStatusCompleted {
		t.Errorf("expected completed, got %q", m.Data.Status)
	}
	if len(m.Stock) != 2 {
		t.Errorf("expected both bases in result stock, got %d", len(m.Stock))
	}
	if len(m.Events) != 2 || m.Events[0].Kind != model.LedgerCommitOut || m.Events[1].Kind != model.LedgerCommitIn {
		t.Errorf("expected commit_out then commit_in, got %+v", m.Events)
	}

	f.expectStock(t, f.alpha.ID, 4, 4, 0)
	f.expectStock(t, f.bravo.ID, 6, 6, 0)
}

func TestTransferRejectReleases(t *testing.T) {
	f := newFixture(t, 10)
	tr := f.requestTransfer(t, 6)

	m, err := RejectTransfer(f.ctx, f.db, adminActor, tr.ID)
	if err != nil {
		t.Fatalf("RejectTransfer: %v", err)
	}
	if m.Data.Status != model.TransferStatusRejected {
		t.Errorf("expected rejected, got %q", m.Data.Status)
	}
	f.expectStock(t, f.alpha.ID, 10, 10, 0)
	f.expectStock(t, f.bravo.ID, 0, 0, 0)
}

func TestTransferDecisionIsFinal(t *testing.T) {
	f := newFixture(t, 10)
	approved := f.requestTransfer(t, 3)
	rejected := f.requestTransfer(t, 2)

	if _, err := ApproveTransfer(f.ctx, f.db, adminActor, approved.ID, false); err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}
	if _, err := RejectTransfer(f.ctx, f.db, adminActor, rejected.ID); err != nil {
		t.Fatalf("RejectTransfer: %v", err)
	}
	events := f.countEvents(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"approve twice", func() error { _, err := ApproveTransfer(f.ctx, f.db, adminActor, approved.ID, false); return err }},
		{"reject approved", func() error { _, err := RejectTransfer(f.ctx, f.db, adminActor, approved.ID); return err }},
		{"approve rejected", func() error { _, err := ApproveTransfer(f.ctx, f.db, adminActor, rejected.ID, false); return err }},
		{"reject twice", func() error { _, err := RejectTransfer(f.ctx, f.db, adminActor, rejected.ID); return err }},
		{"complete completed", func() error { _, err := CompleteTransfer(f.ctx, f.db, adminActor, approved.ID); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})
	}

	f.expectStock(t, f.alpha.ID, 7, 7, 0)
	f.expectStock(t, f.bravo.ID, 3, 3, 0)
	if got := f.countEvents(t); got != events {
		t.Errorf("expected ledger untouched, got %d new events", got-events)
	}
}

func TestTransferWithReceiptStep(t *testing.T) {
	f := newFixture(t, 10)
	tr := f.requestTransfer(t, 4)

	m, err := ApproveTransfer(f.ctx, f.db, adminActor, tr.ID, true)
	if err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}
	if m.Data.Status != model.TransferStatusApproved {
		t.Errorf("expected approved, got %q", m.Data.Status)
	}
	f.expectStock(t, f.alpha.ID, 10, 6, 4)

	// Nothing moved, but the response still carries the held reservation.
	if len(m.Stock) != 1 || m.Stock[0].BaseID != f.alpha.ID || m.Stock[0].QuantityReserved != 4 {
		t.Errorf("expected the source row with 4 reserved, got %+v", m.Stock)
	}
	if m.Events == nil || len(m.Events) != 0 {
		t.Errorf("expected an empty event list, got %#v", m.Events)
	}

	// Only the destination may confirm receipt.
	if _, err := CompleteTransfer(f.ctx, f.db, commanderOf(f.alpha.ID), tr.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for source commander, got %v", err)
	}
	if _, err := RejectTransfer(f.ctx, f.db, adminActor, tr.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("approved transfers cannot be rejected, got %v", err)
	}

	done, err := CompleteTransfer(f.ctx, f.db, commanderOf(f.bravo.ID), tr.ID)
	if err != nil {
		t.Fatalf("CompleteTransfer: %v", err)
	}
	if done.Data.Status != model.TransferStatusCompleted {
		t.Errorf("expected completed, got %q", done.Data.Status)
	}
	f.expectStock(t, f.alpha.ID, 6, 6, 0)
	f.expectStock(t, f.bravo.ID, 4, 4, 0)
}

func TestTransferRequestRejects(t *testing.T) {
	f := newFixture(t, 5)

	tests := []struct {
		name  string
		actor model.Actor
		in    TransferInput
		want  error
	}{
		{"same base", adminActor, TransferInput{FromBaseID: f.alpha.ID, ToBaseID: f.alpha.ID, EquipmentTypeID: f.rifles.ID, Quantity: 1}, ErrValidation},
		{"zero quantity", adminActor, TransferInput{FromBaseID: f.alpha.ID, ToBaseID: f.bravo.ID, EquipmentTypeID: f.rifles.ID}, ErrValidation},
		{"too many", adminActor, TransferInput{FromBaseID: f.alpha.ID, ToBaseID: f.bravo.ID, EquipmentTypeID: f.rifles.ID, Quantity: 6}, ErrInsufficientStock},
		{"nothing at source", adminActor, TransferInput{FromBaseID: f.bravo.ID, ToBaseID: f.alpha.ID, EquipmentTypeID: f.rifles.ID, Quantity: 1}, ErrInsufficientStock},
		{"unknown destination", adminActor, TransferInput{FromBaseID: f.alpha.ID, ToBaseID: 77, EquipmentTypeID: f.rifles.ID, Quantity: 1}, ErrNotFound},
		{"foreign commander", commanderOf(f.bravo.ID), TransferInput{FromBaseID: f.alpha.ID, ToBaseID: f.bravo.ID, EquipmentTypeID: f.rifles.ID, Quantity: 1}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequestTransfer(f.ctx, f.db, tt.actor, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	f.expectStock(t, f.alpha.ID, 5, 5, 0)
	page, _ := ListTransfers(f.ctx, f.db, TransferFilter{})
	if page.Total != 0 {
		t.Errorf("expected no stored transfers, got %d", page.Total)
	}
}

func TestTransferDecisionAuthorization(t *testing.T) {
	f := newFixture(t, 5)
	tr := f.requestTransfer(t, 1)

	// Logistics officers may request but not decide.
	if _, err := RequestTransfer(f.ctx, f.db, officerAt(f.alpha.ID), TransferInput{
		FromBaseID: f.alpha.ID, ToBaseID: f.bravo.ID, EquipmentTypeID: f.rifles.ID, Quantity: 1,
	}); err != nil {
		t.Errorf("officer should request: %v", err)
	}
	if _, err := ApproveTransfer(f.ctx, f.db, officerAt(f.alpha.ID), tr.ID, false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for officer, got %v", err)
	}

	charlie, _ := CreateBase(f.ctx, f.db, "Charlie", "")
	if _, err := RejectTransfer(f.ctx, f.db, commanderOf(charlie.ID), tr.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for uninvolved commander, got %v", err)
	}

	got, _ := GetTransfer(f.ctx, f.db, tr.ID)
	if got.Status != model.TransferStatusPending {
		t.Errorf("expected still pending, got %q", got.Status)
	}
}

func TestListTransfersSortAndFilter(t *testing.T) {
	f := newFixture(t, 20)
	charlie, _ := CreateBase(f.ctx, f.db, "Charlie", "")

	dates := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	targets := []int64{f.bravo.ID, f.bravo.ID, charlie.ID}
	var ids []int64
	for i, d := range dates {
		m, err := RequestTransfer(f.ctx, f.db, adminActor, TransferInput{
			FromBaseID: f.alpha.ID, ToBaseID: targets[i], EquipmentTypeID: f.rifles.ID,
			Quantity: i + 1, TransferDate: d,
		})
		if err != nil {
			t.Fatalf("RequestTransfer: %v", err)
		}
		ids = append(ids, m.Data.ID)
	}
	if _, err := ApproveTransfer(f.ctx, f.db, adminActor, ids[0], false); err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}

	asc, err := ListTransfers(f.ctx, f.db, TransferFilter{SortBy: "transferDate", Order: "asc"})
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(asc.Items) != 3 || asc.Items[0].ID != ids[1] || asc.Items[2].ID != ids[0] {
		t.Errorf("unexpected ascending order: %+v", asc.Items)
	}

	byQty, _ := ListTransfers(f.ctx, f.db, TransferFilter{SortBy: "quantity"})
	if byQty.Items[0].Quantity != 3 {
		t.Errorf("expected largest quantity first, got %d", byQty.Items[0].Quantity)
	}

	// Charlie only appears as a destination.
	atCharlie, _ := ListTransfers(f.ctx, f.db, TransferFilter{BaseID: charlie.ID})
	if atCharlie.Total != 1 || atCharlie.Items[0].ID != ids[2] {
		t.Errorf("expected the charlie transfer, got %+v", atCharlie.Items)
	}
	atAlpha, _ := ListTransfers(f.ctx, f.db, TransferFilter{BaseID: f.alpha.ID})
	if atAlpha.Total != 3 {
		t.Errorf("expected 3 transfers out of alpha, got %d", atAlpha.Total)
	}

	pending, _ := ListTransfers(f.ctx, f.db, TransferFilter{Status: model.TransferStatusPending})
	if pending.Total != 2 {
		t.Errorf("expected 2 pending, got %d", pending.Total)
	}

	if _, err := ListTransfers(f.ctx, f.db, TransferFilter{SortBy: "id; DROP TABLE transfers"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown sort column, got %v", err)
	}
	if _, err := ListTransfers(f.ctx, f.db, TransferFilter{Order: "sideways"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown order, got %v", err)
	}
}
