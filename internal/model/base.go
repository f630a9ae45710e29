package model

import "time"

// Base is a location that holds equipment stock.
type Base struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Location  string     `json:"location,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// EquipmentType is a category of fungible equipment.
type EquipmentType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	PhotoMime string    `json:"photoMime,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
