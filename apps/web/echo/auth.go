package echoweb

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/semillerodigital/dashboard/core/classroom"
	"github.com/semillerodigital/dashboard/core/user"
)

const (
	sessionCookieName = "session"
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 10 * 60 // seconds

	contextClaimsKey = "session"
	contextUserKey   = "user"
)

// Claims are the contents of the session cookie: the signed in user and their sealed Google access token.
type Claims struct {
	jwt.StandardClaims
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	Picture string    `json:"picture,omitempty"`
	Role    user.Role `json:"role"`
	Token   string    `json:"tok"`
}

func (s *Server) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(s.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextClaimsKey,
		Claims:        new(Claims),
		TokenLookup:   "cookie:" + sessionCookieName,
		ErrorHandlerWithContext: func(err error, ctx echo.Context) error {
			return errSessionRequired
		},
	}
}

// newClaims builds the session of usr. It expires with the access token, or after SessionExpirationDelta if sooner.
func (s *Server) newClaims(usr user.User, tok *oauth2.Token) (*Claims, error) {
	now := time.Now()
	exp := now.Add(s.conf.Server.SessionExpirationDelta)
	if !tok.Expiry.IsZero() && tok.Expiry.Before(exp) {
		exp = tok.Expiry
	}

	sealed, err := s.sealer.Seal(tok.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "sealing access token")
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.conf.AppName,
			Subject:   usr.Email,
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:   usr.Email,
		Name:    usr.Name,
		Picture: usr.Picture,
		Role:    usr.Role,
		Token:   sealed,
	}, nil
}

// generateToken signs claims into the session cookie value.
func (s *Server) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(s.conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken is used on public pages, where a session is optional.
func (s *Server) parseToken(ss string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return []byte(s.conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) setSession(ctx echo.Context, claims *Claims) error {
	ss, err := s.generateToken(claims)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(time.Unix(claims.ExpiresAt, 0)).Seconds())
	ctx.SetCookie(s.cookie(sessionCookieName, ss, maxAge))
	return nil
}

func (s *Server) clearSession(ctx echo.Context) {
	ctx.SetCookie(s.cookie(sessionCookieName, "", -1))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextClaimsKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errSessionRequired
}

// getContextUser returns the signed in user. The role is resolved on every request, so allowlist changes apply at once.
func (s *Server) getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr := s.allowlist.Resolve(user.User{
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	})
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// optionalUser returns the user of a valid session cookie, if any.
func (s *Server) optionalUser(ctx echo.Context) *user.User {
	if usr, err := s.getContextUser(ctx); err == nil {
		return &usr
	}
	cookie, err := ctx.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := s.parseToken(cookie.Value)
	if err != nil {
		return nil
	}
	usr := s.allowlist.Resolve(user.User{Email: claims.Email, Name: claims.Name, Picture: claims.Picture})
	return &usr
}

// logUser is the user attached to log entries; zero when signed out.
func (s *Server) logUser(ctx echo.Context) user.User {
	if usr := s.optionalUser(ctx); usr != nil {
		return *usr
	}
	return user.User{}
}

// getContextCredentials opens the access token sealed in the session.
func (s *Server) getContextCredentials(ctx echo.Context) (classroom.Credentials, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return classroom.Credentials{}, err
	}
	tok, err := s.sealer.Open(claims.Token)
	if err != nil {
		return classroom.Credentials{}, classroom.ErrUnauthenticated
	}
	return classroom.Credentials{AccessToken: tok}, nil
}

func (s *Server) login(ctx echo.Context) error {
	state := uuid.NewString()
	ctx.SetCookie(s.cookie(stateCookieName, state, stateCookieMaxAge))
	return ctx.Redirect(http.StatusFound, s.auth.AuthCodeURL(state))
}

func (s *Server) authCallback(ctx echo.Context) error {
	stateCookie, err := ctx.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != ctx.QueryParam("state") {
		return errBadOAuthState
	}
	ctx.SetCookie(s.cookie(stateCookieName, "", -1))

	if oauthErr := ctx.QueryParam("error"); oauthErr != "" {
		s.logger.Info("sign in refused: " + oauthErr)
		return ctx.Redirect(http.StatusFound, "/unauthorized")
	}

	reqCtx := ctx.Request().Context()
	tok, err := s.auth.Exchange(reqCtx, ctx.QueryParam("code"))
	if err != nil {
		s.logger.Warn("exchanging authorization code", err)
		return errAuthenticationFailed
	}
	usr, err := s.auth.UserInfo(reqCtx, tok)
	if err != nil {
		s.logger.Warn("getting user info", err)
		return errAuthenticationFailed
	}
	usr = s.allowlist.Resolve(usr)

	claims, err := s.newClaims(usr, tok)
	if err != nil {
		return errors.Wrap(err, "building session")
	}
	if err = s.setSession(ctx, claims); err != nil {
		return errors.Wrap(err, "setting session")
	}
	s.logger.Info("signed in", usr)
	return ctx.Redirect(http.StatusFound, "/dashboard")
}

func (s *Server) logout(ctx echo.Context) error {
	s.clearSession(ctx)
	return ctx.Redirect(http.StatusSeeOther, "/")
}
