package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/arsenal/internal/model"
)

// EventFilter narrows ListLedgerEvents.
type EventFilter struct {
	PageQuery
	BaseID          int64
	EquipmentTypeID int64
}

// ListLedgerEvents returns one page of the ledger audit trail, newest first.
func ListLedgerEvents(ctx context.Context, db *sql.DB, f EventFilter) (*model.Page[model.LedgerEvent], error) {
	f.normalize()

	where := ` WHERE 1=1`
	var args []any
	if f.BaseID > 0 {
		where += ` AND base_id = ?`
		args = append(args, f.BaseID)
	}
	if f.EquipmentTypeID > 0 {
		where += ` AND equipment_type_id = ?`
		args = append(args, f.EquipmentTypeID)
	}

	page := &model.Page[model.LedgerEvent]{Items: []model.LedgerEvent{}, Page: f.Page, Limit: f.Limit}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_events`+where, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting ledger events: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, event_id, kind, base_id, equipment_type_id, delta_total, delta_available, delta_reserved,
		        ref_type, ref_id, actor_id, created_at
		 FROM ledger_events`+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.offset())...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ledger events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev model.LedgerEvent
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.Kind, &ev.BaseID, &ev.EquipmentTypeID,
			&ev.DeltaTotal, &ev.DeltaAvailable, &ev.DeltaReserved,
			&ev.RefType, &ev.RefID, &ev.ActorID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger event: %w", err)
		}
		page.Items = append(page.Items, ev)
	}
	return page, rows.Err()
}
