package session

import (
	"errors"

	"github.com/labstack/echo/v4"
)

const (
	UserIDKey   = "_user_id"
	UsernameKey = "_username"
	RoleKey     = "_role"
)

var ErrNoSession = errors.New("session manager not available")

// Identity is what a logged-in session remembers about its user.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login renews the session token and binds identity to it.
func Login(c echo.Context, identity Identity) error {
	manager := GetManager(c)
	if manager == nil {
		return ErrNoSession
	}
	ctx := c.Request().Context()
	if err := manager.RenewToken(ctx); err != nil {
		return err
	}
	manager.Put(ctx, UserIDKey, identity.ID)
	manager.Put(ctx, UsernameKey, identity.Username)
	manager.Put(ctx, RoleKey, identity.Role)
	return nil
}

func Logout(c echo.Context) error {
	manager := GetManager(c)
	if manager == nil {
		return nil
	}
	return manager.Destroy(c.Request().Context())
}

func Current(c echo.Context) (Identity, bool) {
	manager := GetManager(c)
	if manager == nil {
		return Identity{}, false
	}
	ctx := c.Request().Context()
	id, ok := manager.Get(ctx, UserIDKey).(uint)
	if !ok || id == 0 {
		return Identity{}, false
	}
	return Identity{
		ID:       id,
		Username: manager.GetString(ctx, UsernameKey),
		Role:     manager.GetString(ctx, RoleKey),
	}, true
}

func IsAuthenticated(c echo.Context) bool {
	_, ok := Current(c)
	return ok
}
