package model

import "time"

// LedgerEvent is one audit-trail entry for a stock ledger mutation.
type LedgerEvent struct {
	ID              int64     `json:"id"`
	EventID         string    `json:"eventId"`
	Kind            string    `json:"kind"`
	BaseID          int64     `json:"baseId"`
	EquipmentTypeID int64     `json:"equipmentTypeId"`
	DeltaTotal      int       `json:"deltaTotal"`
	DeltaAvailable  int       `json:"deltaAvailable"`
	DeltaReserved   int       `json:"deltaReserved"`
	RefType         string    `json:"refType"`
	RefID           int64     `json:"refId"`
	ActorID         *int64    `json:"actorId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Ledger event kinds.
const (
	LedgerReceive   = "receive"
	LedgerReserve   = "reserve"
	LedgerRelease   = "release"
	LedgerCommitOut = "commit_out"
	LedgerCommitIn  = "commit_in"
	LedgerConsume   = "consume"
)

// Ledger event reference types.
const (
	RefAsset       = "asset"
	RefAssignment  = "assignment"
	RefTransfer    = "transfer"
	RefExpenditure = "expenditure"
)

// Page is one page of a list query.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Mutation is the authoritative state after a ledger-affecting write: the
// written record, the stock rows it touched and the audit events it produced.
type Mutation[T any] struct {
	Data   T             `json:"data"`
	Stock  []AssetStock  `json:"stock"`
	Events []LedgerEvent `json:"events"`
}
