package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/arsenal/internal/model"
)

// AssetInput holds the fields of a new asset registration.
type AssetInput struct {
	BaseID          int64
	EquipmentTypeID int64
	Name            string
	SerialNumber    string
	Status          string
	Quantity        int
}

func (in *AssetInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Status == "" {
		in.Status = model.AssetStatusInStorage
	}

	switch {
	case in.BaseID <= 0:
		return validationf("base is required")
	case in.EquipmentTypeID <= 0:
		return validationf("equipment type is required")
	case in.Name == "":
		return validationf("asset name is required")
	case in.SerialNumber == "":
		return validationf("serial number is required")
	case !model.ValidAssetStatus(in.Status):
		return validationf("invalid status %q", in.Status)
	case in.Quantity < 1:
		return validationf("quantity must be at least 1")
	}
	return nil
}

// CreateAsset registers an asset at a base and credits its quantity to the
// base's stock. Decommissioned assets are recorded without touching stock.
func CreateAsset(ctx context.Context, db *sql.DB, actor model.Actor, in AssetInput) (*model.Mutation[*model.Asset], error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := authorizeRegister(actor, in.BaseID); err != nil {
		return nil, err
	}

	var m *model.Mutation[*model.Asset]
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if err := requireBase(ctx, tx, in.BaseID); err != nil {
			return err
		}
		if err := requireEquipmentType(ctx, tx, in.EquipmentTypeID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO assets (base_id, equipment_type_id, name, serial_number, status, quantity, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.BaseID, in.EquipmentTypeID, in.Name, in.SerialNumber, in.Status, in.Quantity, actorRef(actor),
		)
		if err != nil {
			return fmt.Errorf("creating asset: %w", err)
		}
		assetID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting asset id: %w", err)
		}

		l := newLedger(tx, actor)
		if in.Status != model.AssetStatusDecommissioned {
			if err := l.receive(ctx, in.BaseID, in.EquipmentTypeID, in.Quantity, model.RefAsset, assetID); err != nil {
				return err
			}
		}
		stock, err := l.snapshot(ctx)
		if err != nil {
			return err
		}
		asset, err := GetAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		m = &model.Mutation[*model.Asset]{Data: asset, Stock: stock, Events: l.events}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

const assetSelect = `SELECT a.id, a.base_id, a.equipment_type_id, a.name, a.serial_number, a.status,
        a.quantity, a.created_by, a.created_at, b.name, e.name
 FROM assets a
 JOIN bases b ON b.id = a.base_id
 JOIN equipment_types e ON e.id = a.equipment_type_id`

func scanAsset(row rowScanner, a *model.Asset) error {
	return row.Scan(&a.ID, &a.BaseID, &a.EquipmentTypeID, &a.Name, &a.SerialNumber, &a.Status,
		&a.Quantity, &a.CreatedBy, &a.CreatedAt, &a.BaseName, &a.EquipmentTypeName)
}

// GetAsset returns an asset by ID, or nil if it doesn't exist.
func GetAsset(ctx context.Context, q querier, id int64) (*model.Asset, error) {
	a := &model.Asset{}
	err := scanAsset(q.QueryRowContext(ctx, assetSelect+` WHERE a.id = ?`, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// ListBaseAssets returns the assets registered at a base, each with the stock
// counters of its equipment type at that base.
func ListBaseAssets(ctx context.Context, db *sql.DB, baseID int64) ([]model.BaseAsset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, a.base_id, a.equipment_type_id, a.name, a.serial_number, a.status,
		        a.quantity, a.created_by, a.created_at, b.name, e.name,
		        COALESCE(s.quantity_available, 0), COALESCE(s.quantity_reserved, 0), COALESCE(s.quantity_total, 0)
		 FROM assets a
		 JOIN bases b ON b.id = a.base_id
		 JOIN equipment_types e ON e.id = a.equipment_type_id
		 LEFT JOIN asset_stock s ON s.base_id = a.base_id AND s.equipment_type_id = a.equipment_type_id
		 WHERE a.base_id = ?
		 ORDER BY e.name, a.name`, baseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing base assets: %w", err)
	}
	defer rows.Close()

	assets := []model.BaseAsset{}
	for rows.Next() {
		var ba model.BaseAsset
		a := &ba.Asset
		if err := rows.Scan(&a.ID, &a.BaseID, &a.EquipmentTypeID, &a.Name, &a.SerialNumber, &a.Status,
			&a.Quantity, &a.CreatedBy, &a.CreatedAt, &a.BaseName, &a.EquipmentTypeName,
			&ba.Available, &ba.Reserved, &ba.Total); err != nil {
			return nil, fmt.Errorf("scanning base asset: %w", err)
		}
		ba.Quantity = ba.Available
		ba.LotQuantity = a.Quantity
		ba.TypeID = a.EquipmentTypeID
		ba.EquipmentType = &model.Ref{ID: a.EquipmentTypeID, Name: a.EquipmentTypeName}
		assets = append(assets, ba)
	}
	return assets, rows.Err()
}

// assetStockKey resolves an asset to the ledger row it draws from.
func assetStockKey(ctx context.Context, tx *sql.Tx, assetID int64) (baseID, typeID int64, status string, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT base_id, equipment_type_id, status FROM assets WHERE id = ?`, assetID,
	).Scan(&baseID, &typeID, &status)
	if err == sql.ErrNoRows {
		return 0, 0, "", notFound(fmt.Sprintf("asset %d", assetID))
	}
	if err != nil {
		return 0, 0, "", fmt.Errorf("looking up asset: %w", err)
	}
	return baseID, typeID, status, nil
}

func actorRef(actor model.Actor) *int64 {
	if actor.UserID <= 0 {
		return nil
	}
	id := actor.UserID
	return &id
}
