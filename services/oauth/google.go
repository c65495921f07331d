package oauthsvc

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/user"
)

// Scopes requested on sign in: identity plus read-only Classroom access.
var Scopes = []string{
	goauth2.OpenIDScope,
	goauth2.UserinfoEmailScope,
	goauth2.UserinfoProfileScope,
	"https://www.googleapis.com/auth/classroom.courses.readonly",
	"https://www.googleapis.com/auth/classroom.rosters.readonly",
	"https://www.googleapis.com/auth/classroom.student-submissions.students.readonly",
	"https://www.googleapis.com/auth/classroom.profile.emails",
}

type GoogleAuthenticator struct {
	conf *oauth2.Config
	// overrides the userinfo API base URL (tests)
	userInfoEndpoint string
}

var _ Authenticator = (*GoogleAuthenticator)(nil)

func NewGoogleAuthenticator(conf *core.Config) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		conf: &oauth2.Config{
			ClientID:     conf.Google.ClientID,
			ClientSecret: conf.Google.ClientSecret,
			RedirectURL:  conf.Google.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

func (a *GoogleAuthenticator) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (a *GoogleAuthenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchanging authorization code")
	}
	return tok, nil
}

func (a *GoogleAuthenticator) UserInfo(ctx context.Context, tok *oauth2.Token) (user.User, error) {
	opts := []option.ClientOption{option.WithHTTPClient(a.conf.Client(ctx, tok))}
	if a.userInfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(a.userInfoEndpoint))
	}
	srv, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "goauth2.NewService")
	}
	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user info")
	}
	if info.Email == "" {
		return user.User{}, errors.New("google account without email")
	}
	return user.User{
		Email:   core.CleanString(info.Email, true /* lower */),
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
