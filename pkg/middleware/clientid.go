package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ClientID tags every request with a stable browser identity cookie. Shell
// settings are keyed by it; there is no authentication on purpose.
func ClientID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cid := ""
			if ck, err := c.Cookie("SOILSCAN_CID"); err == nil {
				cid = ck.Value
			}
			if cid == "" {
				cid = uuid.NewString()
				c.SetCookie(&http.Cookie{Name: "SOILSCAN_CID", Value: cid, Path: "/"})
			}
			c.Set("cid", cid)
			return next(c)
		}
	}
}
