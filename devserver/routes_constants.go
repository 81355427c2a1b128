package devserver

const (
	LoginRoute    = "/api/auth/login"
	VerifyRoute   = "/api/auth/verify"
	RefreshRoute  = "/api/auth/refresh"
	LogoutRoute   = "/api/auth/logout"
	TenantsRoute  = "/api/tenants"
	ResourceRoute = "/api/{resource...}"

	// RefreshCookieName holds the http-only refresh token, scoped to the auth routes
	RefreshCookieName = "console_refresh"
	refreshCookiePath = "/api/auth"

	tenantHeader = "X-Tenant-Id"
)
