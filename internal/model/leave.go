package model

import "time"

// Leave request states.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// LeaveRequest is a maintenance worker's request for time off.
type LeaveRequest struct {
	ID         string    `json:"id"`
	WorkerID   string    `json:"workerId"`
	WorkerName string    `json:"workerName,omitempty"`
	StartDate  time.Time `json:"startDate" validate:"required"`
	EndDate    time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Reason     string    `json:"reason" validate:"required"`
	Status     string    `json:"status"`
	AdminNotes string    `json:"adminNotes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
