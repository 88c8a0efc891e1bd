package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated subject stored by JWTAuth. The claim
// arrives as a JSON number or string depending on who minted the token.
func UserID(c echo.Context) (uint64, bool) {
	switch t := c.Get(ctxUserID).(type) {
	case uint64:
		return t, true
	case int:
		return uint64(t), t >= 0
	case int64:
		return uint64(t), t >= 0
	case float64:
		return uint64(t), t >= 0 && t == float64(uint64(t))
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Role returns the authenticated role, or "" when there is none.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// RequireSelf lets admins through and otherwise requires the path
// parameter param to equal the authenticated subject.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Role(c) == RoleAdmin {
				return next(c)
			}
			sub, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			id, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || id != sub {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// subject renders the caller for rate limit keys.
func subject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
