package admin

import "contesthub/services"

const ErrInvalidRequest = "Invalid request data"

// SetRoleRequest is the body of PATCH /admin/users/:id/role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetStatusRequest is the body of PATCH /admin/contests/:id/status
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReconcileResponse lists the counters the reconciler corrected
type ReconcileResponse struct {
	Adjusted []services.Adjustment `json:"adjusted"`
}
