package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// coordinatorMiddleware sends signed in users without the coordinator role to their own courses.
func (s *Server) coordinatorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := s.getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if usr.IsCoordinator() {
			return next(ctx)
		}
		return ctx.Redirect(http.StatusFound, "/me")
	}
}
