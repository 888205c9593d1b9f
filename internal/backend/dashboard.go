package backend

import (
	"context"
	"net/http"

	"github.com/iliyamo/apartment-portal/internal/model"
)

var statsPaths = map[string]string{
	model.RoleAdmin:       "/dashboard/admin-stats",
	model.RoleMaintenance: "/dashboard/maintenance-stats",
	model.RoleTenant:      "/dashboard/tenant-stats",
}

// DashboardStats fetches the aggregate counters for role.
func (c *Client) DashboardStats(ctx context.Context, role string) (model.DashboardStats, error) {
	var out model.DashboardStats
	path, ok := statsPaths[role]
	if !ok {
		return out, &BackendError{Status: http.StatusForbidden, Message: "No dashboard for role " + role}
	}
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out, "Failed to load dashboard statistics")
	return out, err
}
