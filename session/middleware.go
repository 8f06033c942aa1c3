package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const sessionManagerKey = "session_manager"

// Middleware loads the session for the request and saves it once the
// handler has written its response.
func Middleware(manager *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if manager == nil {
				return next(c)
			}

			c.Set(sessionManagerKey, manager)

			var handlerErr error
			rw := &responseWriterWrapper{
				ResponseWriter: c.Response().Writer,
				echo:           c.Response(),
			}

			handler := manager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				c.Response().Writer = w
				handlerErr = next(c)
				if handlerErr != nil {
					// Render inside LoadAndSave so the session cookie is
					// still written with the error response.
					c.Error(handlerErr)
					handlerErr = nil
				}
			}))

			handler.ServeHTTP(rw, c.Request())
			return handlerErr
		}
	}
}

// responseWriterWrapper keeps echo's recorded status in step with what scs
// writes.
type responseWriterWrapper struct {
	http.ResponseWriter
	echo *echo.Response
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if w.echo.Status == 0 {
		w.echo.Status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func GetManager(c echo.Context) *Manager {
	if manager, ok := c.Get(sessionManagerKey).(*Manager); ok {
		return manager
	}
	return nil
}
