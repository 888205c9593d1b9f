package model

import "time"

// Apartment is a rentable unit.
//
// Fields:
//	ID          – backend id.
//	Number      – unit number shown to users (e.g. "A-101").
//	Floor       – floor number.
//	Bedrooms    – bedroom count.
//	Rent        – monthly rent.
//	IsOccupied  – whether a tenant currently lives there.
//	TenantID    – current tenant (empty when vacant).
//	Description – free text.
//	CreatedAt   – creation timestamp.
type Apartment struct {
	ID          string    `json:"id"`
	Number      string    `json:"apartmentNumber" validate:"required"`
	Floor       int       `json:"floor" validate:"gte=0"`
	Bedrooms    int       `json:"bedrooms" validate:"gte=0"`
	Rent        float64   `json:"rent" validate:"gte=0"`
	IsOccupied  bool      `json:"isOccupied"`
	TenantID    string    `json:"tenantId,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OccupancyStatus is the value the status filter matches on.
func (a Apartment) OccupancyStatus() string {
	if a.IsOccupied {
		return "occupied"
	}
	return "vacant"
}
