package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/erazemk/arsenal/internal/db"
	"github.com/erazemk/arsenal/internal/model"
)

var adminActor = model.Actor{Username: "root", Role: model.RoleAdmin}

func commanderOf(baseID int64) model.Actor {
	return model.Actor{Username: "cmdr", Role: model.RoleBaseCommander, BaseID: &baseID}
}

func officerAt(baseID int64) model.Actor {
	return model.Actor{Username: "logi", Role: model.RoleLogisticsOfficer, BaseID: &baseID}
}

// fixture is two bases and one equipment type, with qty units of an asset
// registered at the first base.
type fixture struct {
	db     *sql.DB
	ctx    context.Context
	alpha  *model.Base
	bravo  *model.Base
	rifles *model.EquipmentType
	asset  *model.Asset
	serial int
}

func newFixture(t *testing.T, qty int) *fixture {
	t.Helper()
	f := &fixture{db: db.NewTestDB(t), ctx: context.Background()}

	var err error
	if f.alpha, err = CreateBase(f.ctx, f.db, "Alpha", "North"); err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if f.bravo, err = CreateBase(f.ctx, f.db, "Bravo", "South"); err != nil {
		t.Fatalf("CreateBase: %v", err)
	}
	if f.rifles, err = CreateEquipmentType(f.ctx, f.db, "M4 Carbine", "weapons"); err != nil {
		t.Fatalf("CreateEquipmentType: %v", err)
	}
	f.asset = f.register(t, f.alpha.ID, qty)
	return f
}

// register adds qty units of rifles at a base.
func (f *fixture) register(t *testing.T, baseID int64, qty int) *model.Asset {
	t.Helper()
	f.serial++
	m, err := CreateAsset(f.ctx, f.db, adminActor, AssetInput{
		BaseID:          baseID,
		EquipmentTypeID: f.rifles.ID,
		Name:            "Rifle lot",
		SerialNumber:    fmt.Sprintf("SN-%04d", f.serial),
		Quantity:        qty,
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	return m.Data
}

// stock returns total, available and reserved rifles at a base.
func (f *fixture) stock(t *testing.T, baseID int64) (total, available, reserved int) {
	t.Helper()
	s, err := GetStock(f.ctx, f.db, baseID, f.rifles.ID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if s.QuantityAvailable+s.QuantityReserved != s.QuantityTotal {
		t.Fatalf("stock at base %d out of balance: %+v", baseID, s)
	}
	return s.QuantityTotal, s.QuantityAvailable, s.QuantityReserved
}

func (f *fixture) expectStock(t *testing.T, baseID int64, total, available, reserved int) {
	t.Helper()
	gt, ga, gr := f.stock(t, baseID)
	if gt != total || ga != available || gr != reserved {
		t.Errorf("base %d: expected total/available/reserved %d/%d/%d, got %d/%d/%d",
			baseID, total, available, reserved, gt, ga, gr)
	}
}

func (f *fixture) countEvents(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.QueryRowContext(f.ctx, `SELECT COUNT(*) FROM ledger_events`).Scan(&n); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	return n
}
