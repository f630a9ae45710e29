package model

import "time"

// Asset is a registered lot of equipment received at a base.
type Asset struct {
	ID              int64     `json:"id"`
	BaseID          int64     `json:"baseId"`
	EquipmentTypeID int64     `json:"equipmentTypeId"`
	Name            string    `json:"name"`
	SerialNumber    string    `json:"serialNumber"`
	Status          string    `json:"status"`
	Quantity        int       `json:"quantity"`
	CreatedBy       *int64    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`

	// Joined fields (not always populated).
	BaseName          string `json:"baseName,omitempty"`
	EquipmentTypeName string `json:"equipmentTypeName,omitempty"`
}

// Asset statuses.
const (
	AssetStatusInStorage        = "in_storage"
	AssetStatusInUse            = "in_use"
	AssetStatusUnderMaintenance = "under_maintenance"
	AssetStatusDecommissioned   = "decommissioned"
)

// ValidAssetStatus reports whether status is a known asset status.
func ValidAssetStatus(status string) bool {
	switch status {
	case AssetStatusInStorage, AssetStatusInUse, AssetStatusUnderMaintenance, AssetStatusDecommissioned:
		return true
	}
	return false
}

// AssetStock is the ledger row for one equipment type at one base.
// QuantityAvailable + QuantityReserved always equals QuantityTotal.
type AssetStock struct {
	BaseID            int64     `json:"baseId"`
	EquipmentTypeID   int64     `json:"equipmentTypeId"`
	QuantityTotal     int       `json:"quantityTotal"`
	QuantityAvailable int       `json:"quantityAvailable"`
	QuantityReserved  int       `json:"quantityReserved"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updatedAt"`

	// Joined fields (not always populated).
	BaseName          string `json:"baseName,omitempty"`
	EquipmentTypeName string `json:"equipmentTypeName,omitempty"`
	Category          string `json:"category,omitempty"`
}

// BaseAsset is an asset together with the stock counters of its base and type.
// Quantity is the available stock of the type, not the lot size, which is
// carried as LotQuantity.
type BaseAsset struct {
	Asset
	Quantity      int   `json:"quantity"`
	LotQuantity   int   `json:"lotQuantity"`
	TypeID        int64 `json:"equipment_type_id"`
	EquipmentType *Ref  `json:"equipmentType"`
	Available     int   `json:"available"`
	Reserved      int   `json:"reserved"`
	Total         int   `json:"total"`
}
