package model

import "time"

// Assignment issues equipment from a base's stock to a person.
type Assignment struct {
	ID                 int64      `json:"id"`
	AssetID            int64      `json:"assetId"`
	BaseID             int64      `json:"baseId"`
	EquipmentTypeID    int64      `json:"equipmentTypeId"`
	AssignedTo         string     `json:"assignedTo"`
	AssignedBy         *UserRef   `json:"assignedBy,omitempty"`
	Quantity           int        `json:"quantity"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	AssignmentDate     time.Time  `json:"assignmentDate"`
	ExpectedReturnDate *time.Time `json:"expectedReturnDate,omitempty"`
	ReturnedAt         *time.Time `json:"returnedAt,omitempty"`

	Asset *AssetRef `json:"asset,omitempty"`
	Base  *Ref      `json:"base,omitempty"`
}

// Assignment statuses.
const (
	AssignmentStatusActive   = "active"
	AssignmentStatusReturned = "returned"
)

// Expenditure permanently consumes stock.
type Expenditure struct {
	ID              int64     `json:"id"`
	AssetID         int64     `json:"assetId"`
	BaseID          int64     `json:"baseId"`
	EquipmentTypeID int64     `json:"equipmentTypeId"`
	Quantity        int       `json:"quantity"`
	Reason          string    `json:"reason,omitempty"`
	RecordedBy      *int64    `json:"recordedBy,omitempty"`
	ExpendedAt      time.Time `json:"expendedAt"`

	// Joined fields (not always populated).
	EquipmentTypeName string `json:"equipmentTypeName,omitempty"`
	BaseName          string `json:"baseName,omitempty"`
}
