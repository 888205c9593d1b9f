package model

import "time"

// Maintenance request states.
const (
	MaintenancePending    = "pending"
	MaintenanceInProgress = "in_progress"
	MaintenanceCompleted  = "completed"
	MaintenanceCancelled  = "cancelled"
)

// MaintenanceRequest is a repair ticket opened by a tenant and worked by a
// maintenance worker.
//
// Fields:
//	ID          – backend id.
//	TenantID    – tenant who opened it.
//	ApartmentID – apartment concerned.
//	Title       – short summary.
//	Description – details from the tenant.
//	Priority    – low, medium, high or urgent.
//	Status      – pending, in_progress, completed or cancelled.
//	AssignedTo  – worker user id (empty until assigned).
//	Notes       – worker or admin notes.
//	CreatedAt   – when it was opened.
//	CompletedAt – when it was completed (nil otherwise).
type MaintenanceRequest struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	ApartmentID string     `json:"apartmentId,omitempty"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ValidMaintenanceStatus reports whether s is a known request state.
func ValidMaintenanceStatus(s string) bool {
	switch s {
	case MaintenancePending, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}
