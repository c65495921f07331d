package oauthsvc

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/user"
)

const devCode = "dev"

// DevAuthenticator signs in the configured development user without leaving the app.
// Only wired when Classroom data comes from fixtures.
type DevAuthenticator struct {
	callbackPath string
	usr          user.User
	tokenTTL     time.Duration
}

var _ Authenticator = (*DevAuthenticator)(nil)

func NewDevAuthenticator(conf *core.Config) *DevAuthenticator {
	return &DevAuthenticator{
		callbackPath: "/auth/callback",
		usr:          user.User{Email: core.CleanString(conf.Dev.Email, true /* lower */), Name: conf.Dev.Name},
		tokenTTL:     conf.Server.SessionExpirationDelta,
	}
}

// AuthCodeURL points straight at the callback.
func (a *DevAuthenticator) AuthCodeURL(state string) string {
	q := url.Values{"code": {devCode}, "state": {state}}
	return a.callbackPath + "?" + q.Encode()
}

func (a *DevAuthenticator) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code != devCode {
		return nil, errors.New("invalid authorization code")
	}
	return &oauth2.Token{
		AccessToken: "dev-" + uuid.NewString(),
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(a.tokenTTL),
	}, nil
}

func (a *DevAuthenticator) UserInfo(_ context.Context, tok *oauth2.Token) (user.User, error) {
	if tok == nil || !tok.Valid() {
		return user.User{}, errors.New("invalid token")
	}
	return a.usr, nil
}
