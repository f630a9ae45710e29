package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/arsenal/internal/model"
)

// RecordExpenditure permanently removes quantity from the asset's base stock.
// There is no way to undo it.
func RecordExpenditure(ctx context.Context, db *sql.DB, actor model.Actor, assetID int64, qty int, reason string) (*model.Mutation[*model.Expenditure], error) {
	if assetID <= 0 {
		return nil, validationf("asset is required")
	}
	if qty < 1 {
		return nil, validationf("quantity must be at least 1")
	}

	var m *model.Mutation[*model.Expenditure]
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		baseID, typeID, status, err := assetStockKey(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if status == model.AssetStatusDecommissioned {
			return validationf("asset %d is decommissioned", assetID)
		}
		if err := authorizeCommand(actor, "recording expenditure", baseID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO expenditures (asset_id, base_id, equipment_type_id, quantity, reason, recorded_by, expended_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			assetID, baseID, typeID, qty, reason, actorRef(actor), time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("recording expenditure: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting expenditure id: %w", err)
		}

		l := newLedger(tx, actor)
		if err := l.consume(ctx, baseID, typeID, qty, model.RefExpenditure, id); err != nil {
			return err
		}
		stock, err := l.snapshot(ctx)
		if err != nil {
			return err
		}
		x, err := GetExpenditure(ctx, tx, id)
		if err != nil {
			return err
		}
		m = &model.Mutation[*model.Expenditure]{Data: x, Stock: stock, Events: l.events}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

const expenditureSelect = `SELECT x.id, x.asset_id, x.base_id, x.equipment_type_id, x.quantity, x.reason,
        x.recorded_by, x.expended_at, e.name, b.name
 FROM expenditures x
 JOIN equipment_types e ON e.id = x.equipment_type_id
 JOIN bases b ON b.id = x.base_id`

func scanExpenditure(row rowScanner) (*model.Expenditure, error) {
	x := &model.Expenditure{}
	var reason sql.NullString
	if err := row.Scan(&x.ID, &x.AssetID, &x.BaseID, &x.EquipmentTypeID, &x.Quantity, &reason,
		&x.RecordedBy, &x.ExpendedAt, &x.EquipmentTypeName, &x.BaseName); err != nil {
		return nil, err
	}
	x.Reason = reason.String
	return x, nil
}

// GetExpenditure returns an expenditure by ID, or nil if it doesn't exist.
func GetExpenditure(ctx context.Context, q querier, id int64) (*model.Expenditure, error) {
	x, err := scanExpenditure(q.QueryRowContext(ctx, expenditureSelect+` WHERE x.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting expenditure: %w", err)
	}
	return x, nil
}

// ExpenditureFilter narrows ListExpenditures.
type ExpenditureFilter struct {
	PageQuery
	BaseID int64
}

// ListExpenditures returns one page of expenditures, newest first.
func ListExpenditures(ctx context.Context, db *sql.DB, f ExpenditureFilter) (*model.Page[model.Expenditure], error) {
	f.normalize()

	where := ` WHERE 1=1`
	var args []any
	if f.BaseID > 0 {
		where += ` AND x.base_id = ?`
		args = append(args, f.BaseID)
	}

	page := &model.Page[model.Expenditure]{Items: []model.Expenditure{}, Page: f.Page, Limit: f.Limit}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenditures x`+where, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting expenditures: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		expenditureSelect+where+` ORDER BY x.expended_at DESC, x.id DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.offset())...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing expenditures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		x, err := scanExpenditure(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expenditure: %w", err)
		}
		page.Items = append(page.Items, *x)
	}
	return page, rows.Err()
}
