// Package oauthsvc signs users in with their Google account.
package oauthsvc

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/semillerodigital/dashboard/core/user"
)

// Authenticator runs the OAuth authorization-code flow.
type Authenticator interface {
	// AuthCodeURL returns the URL of the consent page; state comes back on the callback.
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// UserInfo returns the identity behind tok. The Role is left for the caller to resolve.
	UserInfo(ctx context.Context, tok *oauth2.Token) (user.User, error)
}
