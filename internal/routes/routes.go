// Package routes maps an authenticated role to its landing route.
package routes

import (
	"errors"
	"fmt"

	"tidyhome/auth-service/internal/models"
)

const (
	Login             = "/login"
	AdminDashboard    = "/admin"
	ProviderDashboard = "/provider"
	CustomerDashboard = "/dashboard"
)

var ErrUnknownRole = errors.New("unknown role")

// ForRole returns the landing route for a role. A role outside the known
// set is an explicit error, never a silent no-op.
func ForRole(role string) (string, error) {
	switch role {
	case models.RoleAdmin:
		return AdminDashboard, nil
	case models.RoleProvider:
		return ProviderDashboard, nil
	case models.RoleCustomer:
		return CustomerDashboard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}
