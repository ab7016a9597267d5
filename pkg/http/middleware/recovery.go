package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "AquaWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover returns recovery middleware. A panic in a handler becomes a 500
// instead of taking the process down.
func Recover(log *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					if log != nil {
						log.Error("panic recovered",
							applogger.String("path", c.Request().URL.Path),
							applogger.String("stack", string(debug.Stack())),
							applogger.Error(err))
					}
					_ = c.NoContent(http.StatusInternalServerError)
				}
			}()
			return next(c)
		}
	}
}
