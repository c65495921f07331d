package echoweb

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
)

var (
	errBadOAuthState        = echo.NewHTTPError(http.StatusBadRequest, "La solicitud de inicio de sesión no es válida. Intenta de nuevo.")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "No se pudo iniciar sesión con Google.")
	errSessionRequired      = echo.NewHTTPError(http.StatusUnauthorized, "No hay sesión activa")
)

// PageError is a failure shown to the user as a static message with a way back.
type PageError struct {
	Code    int
	Message string
	Back    *Link
	Err     error
}

func (e *PageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// pageFailure turns an error met while loading a page into the page's own message.
// Upstream failures become a 502 PageError; a missing token is kept as is; anything else is returned wrapped.
func pageFailure(err error, message string, back *Link) error {
	if errors.Cause(err) == classroom.ErrUnauthenticated {
		return err
	}
	if _, ok := classroom.AsUpstreamFetchError(err); ok {
		return &PageError{Code: http.StatusBadGateway, Message: message, Back: back, Err: err}
	}
	return errors.Wrap(err, message)
}

// errorPage is the data of the error template.
type errorPage struct {
	Message string
	Details []string
	Back    *Link
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders our errors as pages.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func (s *Server) newAppHTTPErrorHandler(signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		page := errorPage{Back: &Link{URL: "/", Label: "Volver al inicio"}}

		switch origErr := errors.Cause(err).(type) {
		case *PageError:
			code = origErr.Code
			page.Message = origErr.Message
			page.Back = origErr.Back
			s.logger.Warn(origErr.Error(), origErr.Err, s.logUser(ctx))
		case *classroom.UpstreamFetchError:
			code = http.StatusBadGateway
			page.Message = origErr.Message
			s.logger.Warn(origErr.Error(), origErr, s.logUser(ctx))
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing || origErr == errSessionRequired {
				s.clearSession(ctx)
				s.redirect(ctx, "/")
				return
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			page.Message = fmt.Sprint(origErr.Message)
			if code == http.StatusNotFound {
				page.Message = "Página no encontrada."
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			page.Message = "La dirección solicitada no es válida."
			for _, vErr := range origErr {
				page.Details = append(page.Details, vErr.Translate(s.translator))
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			page.Message = "La dirección solicitada no es válida."
			for _, fErr := range origErr.Fields {
				page.Details = append(page.Details, fErr.Field+": "+fErr.Error)
			}
		default:
			if origErr == classroom.ErrUnauthenticated {
				s.clearSession(ctx)
				code = http.StatusUnauthorized
				page.Message = "No hay sesión activa"
				page.Back = &Link{URL: "/login", Label: "Ingresar con Google"}
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			page.Message = "Ocurrió un error inesperado. Por favor, intenta de nuevo."
			s.logger.Error(msg, errors.Wrap(err, msg), s.logUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			page.Details = append(page.Details, err.Error())
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = s.render(ctx, code, "error", "Error", page)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func (s *Server) redirect(ctx echo.Context, url string) {
	if ctx.Response().Committed {
		return
	}
	if err := ctx.Redirect(http.StatusFound, url); err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
