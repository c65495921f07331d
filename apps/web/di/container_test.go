package dig_container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoweb "github.com/semillerodigital/dashboard/apps/web/echo"
	"github.com/semillerodigital/dashboard/core/classroom"
	classroomsvc "github.com/semillerodigital/dashboard/services/classroom"
	oauthsvc "github.com/semillerodigital/dashboard/services/oauth"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_LOG_LEVEL", "error")

	err := New().Invoke(func(server *echoweb.Server, provider classroom.Provider, auth oauthsvc.Authenticator) {
		assert.NotNil(t, server)
		assert.IsType(t, &classroomsvc.GoogleProvider{}, provider)
		assert.IsType(t, &oauthsvc.GoogleAuthenticator{}, auth)
		assert.NoError(t, server.Shutdown(context.Background()))
	})
	require.NoError(t, err)
}

func TestNew_Fixtures(t *testing.T) {
	fixtures, err := filepath.Abs(filepath.Join("..", "..", "..", "config", "fixtures", "classroom.json"))
	require.NoError(t, err)
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_LOG_LEVEL", "error")
	t.Setenv("TEST_CLASSROOM_FIXTURES_PATH", fixtures)

	err = New().Invoke(func(provider classroom.Provider, auth oauthsvc.Authenticator) {
		assert.IsType(t, &classroomsvc.FixtureProvider{}, provider)
		assert.IsType(t, &oauthsvc.DevAuthenticator{}, auth)
	})
	require.NoError(t, err)
}
