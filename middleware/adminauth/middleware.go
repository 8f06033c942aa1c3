package adminauth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/services/users"
	"github.com/tech-arch1tect/angrymail/session"
)

const identityKey = "admin_identity"

// RequireAuth rejects requests without a logged-in session.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := session.Current(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// RequireAdmin admits only sessions whose user holds the admin role.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := session.Current(c)
			if !ok || identity.Role != string(users.RoleAdmin) {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

func Identity(c echo.Context) (session.Identity, bool) {
	identity, ok := c.Get(identityKey).(session.Identity)
	return identity, ok
}
