package model

// Ref names a related record in API responses.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AssetRef is the part of an asset shown alongside an assignment.
type AssetRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SerialNumber  string `json:"serialNumber"`
	EquipmentType *Ref   `json:"equipmentType"`
}

// UserRef is the part of a user shown alongside a record they made.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
