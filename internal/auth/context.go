package auth

import "github.com/labstack/echo/v4"

const TenantHeader = "X-Tenant-Id"

// GetTenantID resolves the tenant a request acts for. Explicit values (from a
// decoded body) win, then the tenantId query parameter, then the header.
func GetTenantID(c echo.Context, explicit ...string) string {
	for _, v := range explicit {
		if v != "" {
			return v
		}
	}
	if v := c.QueryParam("tenantId"); v != "" {
		return v
	}
	return c.Request().Header.Get(TenantHeader)
}
