package model

import "time"

// Tenant is a person renting an apartment.
type Tenant struct {
	ID            string     `json:"id"`
	Name          string     `json:"name" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Phone         string     `json:"phone,omitempty"`
	ApartmentID   string     `json:"apartmentId,omitempty"`
	ApartmentNo   string     `json:"apartmentNumber,omitempty"`
	LeaseStart    *time.Time `json:"leaseStartDate,omitempty"`
	LeaseEnd      *time.Time `json:"leaseEndDate,omitempty"`
	IsActive      bool       `json:"isActive"`
	EmergencyName string     `json:"emergencyContact,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ActivityStatus is the value the status filter matches on.
func (t Tenant) ActivityStatus() string {
	if t.IsActive {
		return "active"
	}
	return "inactive"
}
