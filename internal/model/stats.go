package model

// DashboardStats is the aggregate block at the top of each dashboard. The
// backend fills the counters relevant to the caller's role and leaves the
// rest at zero.
type DashboardStats struct {
	TotalApartments    int     `json:"totalApartments"`
	OccupiedApartments int     `json:"occupiedApartments"`
	TotalTenants       int     `json:"totalTenants"`
	PendingBills       int     `json:"pendingBills"`
	OverdueBills       int     `json:"overdueBills"`
	MonthlyRevenue     float64 `json:"monthlyRevenue"`
	OpenMaintenance    int     `json:"openMaintenance"`
	PendingLeave       int     `json:"pendingLeave"`
	AssignedRequests   int     `json:"assignedRequests"`
	OutstandingAmount  float64 `json:"outstandingAmount"`
}
