package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/arsenal/internal/model"
)

// stockKey identifies one ledger row.
type stockKey struct {
	baseID, typeID int64
}

// ledger applies stock mutations inside a caller-owned transaction. Every
// mutation is a single conditional UPDATE, so a failed precondition changes
// nothing, and each one appends an audit event in the same transaction.
type ledger struct {
	tx      *sql.Tx
	actorID *int64
	touched []stockKey
	events  []model.LedgerEvent
}

func newLedger(tx *sql.Tx, actor model.Actor) *ledger {
	return &ledger{tx: tx, actorID: actorRef(actor), events: []model.LedgerEvent{}}
}

// receive credits newly registered quantity to a base.
func (l *ledger) receive(ctx context.Context, baseID, typeID int64, qty int, refType string, refID int64) error {
	if qty < 1 {
		return validationf("quantity must be at least 1")
	}
	if err := l.credit(ctx, baseID, typeID, qty); err != nil {
		return fmt.Errorf("receiving stock: %w", err)
	}
	return l.record(ctx, model.LedgerReceive, baseID, typeID, qty, qty, 0, refType, refID)
}

// reserve moves quantity from available to reserved. It fails closed: if the
// base does not have qty available nothing is written.
func (l *ledger) reserve(ctx context.Context, baseID, typeID int64, qty int, refType string, refID int64) error {
	if qty < 1 {
		return validationf("quantity must be at least 1")
	}

	res, err := l.tx.ExecContext(ctx,
		`UPDATE asset_stock
		 SET quantity_available = quantity_available - ?,
		     quantity_reserved = quantity_reserved + ?,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE base_id = ? AND equipment_type_id = ? AND quantity_available >= ?`,
		qty, qty, baseID, typeID, qty,
	)
	if err != nil {
		return fmt.Errorf("reserving stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return l.insufficient(ctx, baseID, typeID, qty)
	}

	l.touch(baseID, typeID)
	return l.record(ctx, model.LedgerReserve, baseID, typeID, 0, -qty, qty, refType, refID)
}

// release returns reserved quantity to available.
func (l *ledger) release(ctx context.Context, baseID, typeID int64, qty int, refType string, refID int64) error {
	res, err := l.tx.ExecContext(ctx,
		`UPDATE asset_stock
		 SET quantity_available = quantity_available + ?,
		     quantity_reserved = quantity_reserved - ?,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE base_id = ? AND equipment_type_id = ? AND quantity_reserved >= ?`,
		qty, qty, baseID, typeID, qty,
	)
	if err != nil {
		return fmt.Errorf("releasing stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("releasing stock: base %d type %d holds less than %d reserved", baseID, typeID, qty)
	}

	l.touch(baseID, typeID)
	return l.record(ctx, model.LedgerRelease, baseID, typeID, 0, qty, -qty, refType, refID)
}

// commitTransfer moves quantity already reserved at fromBase into the
// available stock of toBase. Both sides change in the caller's transaction.
func (l *ledger) commitTransfer(ctx context.Context, fromBase, toBase, typeID int64, qty int, transferID int64) error {
	res, err := l.tx.ExecContext(ctx,
		`UPDATE asset_stock
		 SET quantity_reserved = quantity_reserved - ?,
		     quantity_total = quantity_total - ?,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE base_id = ? AND equipment_type_id = ? AND quantity_reserved >= ?`,
		qty, qty, fromBase, typeID, qty,
	)
	if err != nil {
		return fmt.Errorf("debiting source stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: base %d has less than %d reserved", ErrInsufficientStock, fromBase, qty)
	}
	l.touch(fromBase, typeID)
	if err := l.record(ctx, model.LedgerCommitOut, fromBase, typeID, -qty, 0, -qty, model.RefTransfer, transferID); err != nil {
		return err
	}

	if err := l.credit(ctx, toBase, typeID, qty); err != nil {
		return fmt.Errorf("crediting destination stock: %w", err)
	}
	return l.record(ctx, model.LedgerCommitIn, toBase, typeID, qty, qty, 0, model.RefTransfer, transferID)
}

// consume permanently removes available quantity.
func (l *ledger) consume(ctx context.Context, baseID, typeID int64, qty int, refType string, refID int64) error {
	if qty < 1 {
		return validationf("quantity must be at least 1")
	}

	res, err := l.tx.ExecContext(ctx,
		`UPDATE asset_stock
		 SET quantity_available = quantity_available - ?,
		     quantity_total = quantity_total - ?,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE base_id = ? AND equipment_type_id = ? AND quantity_available >= ?`,
		qty, qty, baseID, typeID, qty,
	)
	if err != nil {
		return fmt.Errorf("consuming stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return l.insufficient(ctx, baseID, typeID, qty)
	}

	l.touch(baseID, typeID)
	return l.record(ctx, model.LedgerConsume, baseID, typeID, -qty, -qty, 0, refType, refID)
}

// credit adds quantity to total and available, creating the row on first use.
func (l *ledger) credit(ctx context.Context, baseID, typeID int64, qty int) error {
	_, err := l.tx.ExecContext(ctx,
		`INSERT INTO asset_stock (base_id, equipment_type_id, quantity_total, quantity_available, version)
		 VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT (base_id, equipment_type_id) DO UPDATE SET
		     quantity_total = quantity_total + excluded.quantity_total,
		     quantity_available = quantity_available + excluded.quantity_available,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP`,
		baseID, typeID, qty, qty,
	)
	if err != nil {
		return err
	}
	l.touch(baseID, typeID)
	return nil
}

func (l *ledger) insufficient(ctx context.Context, baseID, typeID int64, qty int) error {
	var available int
	err := l.tx.QueryRowContext(ctx,
		`SELECT quantity_available FROM asset_stock WHERE base_id = ? AND equipment_type_id = ?`,
		baseID, typeID,
	).Scan(&available)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking available quantity: %w", err)
	}
	return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, available, qty)
}

func (l *ledger) touch(baseID, typeID int64) {
	k := stockKey{baseID, typeID}
	for _, t := range l.touched {
		if t == k {
			return
		}
	}
	l.touched = append(l.touched, k)
}

func (l *ledger) record(ctx context.Context, kind string, baseID, typeID int64, dTotal, dAvail, dReserved int, refType string, refID int64) error {
	ev := model.LedgerEvent{
		EventID:         uuid.NewString(),
		Kind:            kind,
		BaseID:          baseID,
		EquipmentTypeID: typeID,
		DeltaTotal:      dTotal,
		DeltaAvailable:  dAvail,
		DeltaReserved:   dReserved,
		RefType:         refType,
		RefID:           refID,
		ActorID:         l.actorID,
		CreatedAt:       time.Now().UTC(),
	}

	res, err := l.tx.ExecContext(ctx,
		`INSERT INTO ledger_events (event_id, kind, base_id, equipment_type_id,
		     delta_total, delta_available, delta_reserved, ref_type, ref_id, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.Kind, ev.BaseID, ev.EquipmentTypeID,
		ev.DeltaTotal, ev.DeltaAvailable, ev.DeltaReserved, ev.RefType, ev.RefID, ev.ActorID, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording ledger event: %w", err)
	}
	ev.ID, _ = res.LastInsertId()
	l.events = append(l.events, ev)
	return nil
}

// snapshot reads every touched stock row inside the transaction.
func (l *ledger) snapshot(ctx context.Context) ([]model.AssetStock, error) {
	stock := make([]model.AssetStock, 0, len(l.touched))
	for _, k := range l.touched {
		s, err := scanStock(l.tx.QueryRowContext(ctx, stockSelect+` WHERE s.base_id = ? AND s.equipment_type_id = ?`, k.baseID, k.typeID))
		if err != nil {
			return nil, fmt.Errorf("reading stock snapshot: %w", err)
		}
		stock = append(stock, *s)
	}
	return stock, nil
}

const stockSelect = `SELECT s.base_id, s.equipment_type_id, s.quantity_total, s.quantity_available,
        s.quantity_reserved, s.version, s.updated_at, b.name, e.name, e.category
 FROM asset_stock s
 JOIN bases b ON b.id = s.base_id
 JOIN equipment_types e ON e.id = s.equipment_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanStock(row rowScanner) (*model.AssetStock, error) {
	s := &model.AssetStock{}
	err := row.Scan(&s.BaseID, &s.EquipmentTypeID, &s.QuantityTotal, &s.QuantityAvailable,
		&s.QuantityReserved, &s.Version, &s.UpdatedAt, &s.BaseName, &s.EquipmentTypeName, &s.Category)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetStock returns the ledger row for a base and equipment type. A missing
// row is reported as zero stock.
func GetStock(ctx context.Context, db *sql.DB, baseID, typeID int64) (*model.AssetStock, error) {
	s, err := scanStock(db.QueryRowContext(ctx, stockSelect+` WHERE s.base_id = ? AND s.equipment_type_id = ?`, baseID, typeID))
	if err == sql.ErrNoRows {
		return &model.AssetStock{BaseID: baseID, EquipmentTypeID: typeID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock: %w", err)
	}
	return s, nil
}

// ListStock returns ledger rows, optionally restricted to one base.
func ListStock(ctx context.Context, db *sql.DB, baseID int64) ([]model.AssetStock, error) {
	query := stockSelect
	var args []any
	if baseID > 0 {
		query += ` WHERE s.base_id = ?`
		args = append(args, baseID)
	}
	query += ` ORDER BY b.name, e.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	defer rows.Close()

	var stock []model.AssetStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock: %w", err)
		}
		stock = append(stock, *s)
	}
	return stock, rows.Err()
}
