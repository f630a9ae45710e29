package model

import "time"

// Transfer moves equipment quantity from one base to another.
type Transfer struct {
	ID              int64     `json:"id"`
	FromBaseID      int64     `json:"fromBaseId"`
	ToBaseID        int64     `json:"toBaseId"`
	EquipmentTypeID int64     `json:"equipmentTypeId"`
	Quantity        int       `json:"quantity"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	TransferDate    time.Time `json:"transferDate"`
	RequestedBy     *int64    `json:"requestedBy,omitempty"`
	DecidedBy       *int64    `json:"decidedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	FromBase      *Ref `json:"fromBase,omitempty"`
	ToBase        *Ref `json:"toBase,omitempty"`
	EquipmentType *Ref `json:"equipmentType,omitempty"`
}

// Transfer statuses.
const (
	TransferStatusPending   = "pending"
	TransferStatusApproved  = "approved"
	TransferStatusRejected  = "rejected"
	TransferStatusCompleted = "completed"
)

// transferTransitions lists the allowed status changes. There is no way back.
var transferTransitions = map[string][]string{
	TransferStatusPending:  {TransferStatusApproved, TransferStatusRejected, TransferStatusCompleted},
	TransferStatusApproved: {TransferStatusCompleted},
}

// CanTransition reports whether a transfer may move from one status to another.
// pending -> completed is the approve step when no separate receipt is recorded.
func CanTransition(from, to string) bool {
	for _, s := range transferTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidTransferStatus reports whether status is a known transfer status.
func ValidTransferStatus(status string) bool {
	switch status {
	case TransferStatusPending, TransferStatusApproved, TransferStatusRejected, TransferStatusCompleted:
		return true
	}
	return false
}
