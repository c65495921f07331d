package echoweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/semillerodigital/dashboard/core"
	"github.com/semillerodigital/dashboard/core/classroom"
	"github.com/semillerodigital/dashboard/core/seal"
	"github.com/semillerodigital/dashboard/core/user"
	oauthsvc "github.com/semillerodigital/dashboard/services/oauth"
	testutil "github.com/semillerodigital/dashboard/tests"
)

var (
	coordinator = user.User{Email: "coord@semillero.org", Name: "Carla Coordinadora", Role: user.RoleCoordinator}
	teacher     = user.User{Email: "ana@semillero.org", Name: "Ana", Role: user.RoleUser}
)

type testEnv struct {
	srv    *Server
	client *testutil.FakeClient
	logger *testutil.RecordingLogger
}

func newTestEnv(t *testing.T) *testEnv {
	conf := testutil.Config()
	conf.Dev.Email = coordinator.Email
	conf.Dev.Name = coordinator.Name

	logger := &testutil.RecordingLogger{}
	client := testutil.SampleClient()

	sealer, err := seal.New(conf.SecretKey)
	require.NoError(t, err)
	renderer, err := NewRenderer(conf)
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	srv := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		ClassroomSvc:  classroom.NewService(conf, logger, &testutil.FakeProvider{Fake: client}),
		Authenticator: oauthsvc.NewDevAuthenticator(conf),
		Allowlist:     user.NewAllowlist(coordinator.Email),
		Sealer:        sealer,
		Renderer:      renderer,
		Validate:      validate,
		Translator:    translator,
	})
	return &testEnv{srv: srv, client: client, logger: logger}
}

func (env *testEnv) sessionCookie(t *testing.T, usr user.User, accessToken string) *http.Cookie {
	claims, err := env.srv.newClaims(usr, &oauth2.Token{AccessToken: accessToken, Expiry: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	ss, err := env.srv.generateToken(claims)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookieName, Value: ss}
}

func (env *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)
	coordSession := env.sessionCookie(t, coordinator, "coord-token")
	teacherSession := env.sessionCookie(t, teacher, "teacher-token")
	forged := &http.Cookie{Name: sessionCookieName, Value: coordSession.Value[:len(coordSession.Value)-4] + "AAAA"}

	tests := []struct {
		name         string
		path         string
		session      *http.Cookie
		wantCode     int
		wantLocation string
		wantBody     []string
		wantNotBody  []string
	}{
		{name: "health", path: "/healthz", wantCode: http.StatusOK, wantBody: []string{"ok"}},
		{name: "home signed out", path: "/", wantCode: http.StatusOK, wantBody: []string{"Bienvenido al Dashboard", "Ingresar con Google"}},
		{name: "home signed in", path: "/", session: teacherSession, wantCode: http.StatusOK, wantBody: []string{"Bienvenido al Dashboard", "Cerrar sesión", teacher.Email}},
		{name: "unauthorized", path: "/unauthorized", wantCode: http.StatusForbidden, wantBody: []string{"Acceso Denegado"}},
		{name: "not found", path: "/nope", wantCode: http.StatusNotFound, wantBody: []string{"Página no encontrada."}},

		{name: "dashboard without session", path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/"},
		{name: "dashboard with forged session", path: "/dashboard", session: forged, wantCode: http.StatusFound, wantLocation: "/"},
		{name: "dashboard as user", path: "/dashboard", session: teacherSession, wantCode: http.StatusFound, wantLocation: "/me"},
		{
			name:     "dashboard as coordinator",
			path:     "/dashboard",
			session:  coordSession,
			wantCode: http.StatusOK,
			wantBody: []string{"Dashboard del Coordinador", "Todos los profesores", "Programación", "Diseño", "Marketing", "Sin profesor asignado", "Luis, Ana"},
		},
		{
			name:        "dashboard filtered by teacher",
			path:        "/dashboard?teacher=Luis",
			session:     coordSession,
			wantCode:    http.StatusOK,
			wantBody:    []string{"Diseño", `<option value="Luis" selected>`},
			wantNotBody: []string{"Programación", "Marketing"},
		},
		{name: "dashboard trailing slash", path: "/dashboard/", session: coordSession, wantCode: http.StatusOK, wantBody: []string{"Dashboard del Coordinador"}},

		{name: "me without session", path: "/me", wantCode: http.StatusFound, wantLocation: "/"},
		{
			name:     "me",
			path:     "/me",
			session:  teacherSession,
			wantCode: http.StatusOK,
			wantBody: []string{"Mi Dashboard", "Bienvenido, Ana.", "Cursos que imparto", "Programación", "Cursos en los que estoy inscrito", "Inglés"},
		},

		{name: "course without session", path: "/dashboard/course/c1", wantCode: http.StatusFound, wantLocation: "/"},
		{
			name:     "course",
			path:     "/dashboard/course/c1",
			session:  teacherSession,
			wantCode: http.StatusOK,
			wantBody: []string{"Programación", "Tareas del Curso (1)", "TP 1", "10/5/2024", "PUBLISHED", "Lista de Alumnos (3)", "Alumno u1", "Volver a mis cursos"},
		},
		{name: "course as coordinator links back to dashboard", path: "/dashboard/course/c1", session: coordSession, wantCode: http.StatusOK, wantBody: []string{"Volver al Dashboard"}},
		{name: "course with invalid id", path: "/dashboard/course/bad!id", session: teacherSession, wantCode: http.StatusBadRequest, wantBody: []string{"courseId no es un identificador válido"}},

		{
			name:     "course work",
			path:     "/dashboard/course/c1/work/w1",
			session:  teacherSession,
			wantCode: http.StatusOK,
			wantBody: []string{
				"TP 1", "Fecha límite: 10/05/2024", "Volver al curso",
				`<div class="stat">3</div>`, `<div class="stat text-green">2</div>`, `<div class="stat text-yellow">1</div>`, `<div class="stat text-gray">1</div>`,
				`data-user="u1" data-status="SUBMITTED"`, `data-user="u2" data-status="LATE"`, `data-user="u3" data-status="MISSING"`,
				"badge-green", "Entregado", "Tarde", "Pendiente", "Sin calificar", "Sin email",
			},
		},
		{name: "course work with invalid id", path: "/dashboard/course/c1/work/w%201", session: teacherSession, wantCode: http.StatusBadRequest, wantBody: []string{"courseWorkId no es un identificador válido"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.session != nil {
				cookies = append(cookies, tt.session)
			}
			rec := env.get(tt.path, cookies...)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
			}
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			for _, notWant := range tt.wantNotBody {
				assert.NotContains(t, body, notWant)
			}
		})
	}
}

func TestPages_UpstreamFailures(t *testing.T) {
	upstream := func(op, msg string) error {
		return classroom.NewUpstreamFetchError(op, msg, http.StatusForbidden, assert.AnError)
	}

	tests := []struct {
		name     string
		path     string
		usr      user.User
		errs     map[string]error
		wantBody []string
	}{
		{
			name:     "dashboard shows the upstream message inline",
			path:     "/dashboard",
			usr:      coordinator,
			errs:     map[string]error{"ListCourses": upstream("listCourses", "No se pudieron obtener los cursos de Google Classroom.")},
			wantBody: []string{"Error al cargar los cursos", "No se pudieron obtener los cursos de Google Classroom."},
		},
		{
			name:     "me",
			path:     "/me",
			usr:      teacher,
			errs:     map[string]error{"ListCoursesAsStudent": upstream("listCoursesAsStudent", "No se pudieron obtener los cursos en los que está inscrito.")},
			wantBody: []string{"Error al cargar tus cursos."},
		},
		{
			name:     "course",
			path:     "/dashboard/course/c1",
			usr:      coordinator,
			errs:     map[string]error{"ListStudents": upstream("listStudents", "No se pudieron obtener los alumnos del curso.")},
			wantBody: []string{"Error al cargar los datos del curso.", `href="/dashboard"`},
		},
		{
			name:     "course work",
			path:     "/dashboard/course/c1/work/w1",
			usr:      teacher,
			errs:     map[string]error{"ListSubmissions": upstream("listSubmissions", "No se pudieron obtener las entregas de los alumnos.")},
			wantBody: []string{"Error al cargar los detalles de la tarea. Por favor, intenta de nuevo.", `href="/dashboard/course/c1"`, "Volver al curso"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.client.Errs = tt.errs

			rec := env.get(tt.path, env.sessionCookie(t, tt.usr, "token"))

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			assert.NotEmpty(t, env.logger.Levels("warn"))
			assert.Empty(t, env.logger.Levels("error"))
		})
	}
}

func TestPages_UnexpectedError(t *testing.T) {
	env := newTestEnv(t)
	env.client.Errs = map[string]error{"GetCourse": assert.AnError}

	rec := env.get("/dashboard/course/c1", env.sessionCookie(t, teacher, "token"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ocurrió un error inesperado.")
	errs := env.logger.Levels("error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Args, teacher)
}

func TestErrorHandler_ShutdownOnMissingTemplate(t *testing.T) {
	env := newTestEnv(t)
	env.srv.app.GET("/broken", func(ctx echo.Context) error {
		return env.srv.render(ctx, http.StatusOK, "missing", "", nil)
	})

	rec := env.get("/broken")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ocurrió un error inesperado.")
	require.Len(t, env.logger.Levels("error"), 1)
	select {
	case <-env.srv.ShutdownSignal():
	default:
		t.Fatal("no shutdown signal")
	}
}

func TestErrorHandler_NoShutdownOnOrdinaryErrors(t *testing.T) {
	env := newTestEnv(t)
	env.client.Errs = map[string]error{"GetCourse": assert.AnError}

	rec := env.get("/dashboard/course/c1", env.sessionCookie(t, teacher, "token"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	select {
	case <-env.srv.ShutdownSignal():
		t.Fatal("unexpected shutdown signal")
	default:
	}
}

func TestPages_UnreadableAccessToken(t *testing.T) {
	env := newTestEnv(t)
	claims, err := env.srv.newClaims(teacher, &oauth2.Token{AccessToken: "token"})
	require.NoError(t, err)
	claims.Token = "not-sealed"
	ss, err := env.srv.generateToken(claims)
	require.NoError(t, err)

	rec := env.get("/dashboard/course/c1/work/w1", &http.Cookie{Name: sessionCookieName, Value: ss})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No hay sesión activa")
	if c := responseCookie(rec, sessionCookieName); assert.NotNil(t, c) {
		assert.True(t, c.MaxAge < 0, "session cleared")
	}
}

func TestPages_UsesSessionAccessToken(t *testing.T) {
	env := newTestEnv(t)
	provider := &testutil.FakeProvider{Fake: env.client}
	env.srv.svc = classroom.NewService(env.srv.conf, env.logger, provider)

	rec := env.get("/me", env.sessionCookie(t, teacher, "ya29.secret"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ya29.secret", provider.LastCreds.AccessToken)
	assert.NotContains(t, rec.Body.String(), "ya29.secret")
}

func TestSignInFlow(t *testing.T) {
	env := newTestEnv(t)

	// /login -> consent page (the dev authenticator points back to the callback)
	rec := env.get("/login")
	require.Equal(t, http.StatusFound, rec.Code)
	state := responseCookie(rec, stateCookieName)
	require.NotNil(t, state)

	consent, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", consent.Path)
	assert.Equal(t, state.Value, consent.Query().Get("state"))

	// callback -> session
	rec = env.get(consent.String(), state)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
	session := responseCookie(rec, sessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.MaxAge > 0)

	claims, err := env.srv.parseToken(session.Value)
	require.NoError(t, err)
	assert.Equal(t, coordinator.Email, claims.Email)
	assert.Equal(t, user.RoleCoordinator, claims.Role)
	assert.False(t, strings.HasPrefix(claims.Token, "dev-"), "access token is sealed")

	rec = env.get("/dashboard", session)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), coordinator.Name)
}

func TestAuthCallback_Failures(t *testing.T) {
	env := newTestEnv(t)
	state := &http.Cookie{Name: stateCookieName, Value: "s1"}

	tests := []struct {
		name         string
		query        string
		cookies      []*http.Cookie
		wantCode     int
		wantLocation string
	}{
		{name: "no state cookie", query: "?code=dev&state=s1", wantCode: http.StatusBadRequest},
		{name: "state mismatch", query: "?code=dev&state=s2", cookies: []*http.Cookie{state}, wantCode: http.StatusBadRequest},
		{name: "consent refused", query: "?error=access_denied&state=s1", cookies: []*http.Cookie{state}, wantCode: http.StatusFound, wantLocation: "/unauthorized"},
		{name: "bad code", query: "?code=nope&state=s1", cookies: []*http.Cookie{state}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get("/auth/callback"+tt.query, tt.cookies...)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get(echo.HeaderLocation))
			}
			assert.Nil(t, responseCookie(rec, sessionCookieName))
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	session := env.sessionCookie(t, teacher, "token")

	// the CSRF token is handed out on any GET
	rec := env.get("/", session)
	csrf := responseCookie(rec, "_csrf")
	require.NotNil(t, csrf)
	assert.Contains(t, rec.Body.String(), `name="_csrf" value="`+csrf.Value+`"`)

	post := func(form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return env.do(req, cookies...)
	}

	rec = post(url.Values{}, session, csrf)
	assert.NotEqual(t, http.StatusSeeOther, rec.Code, "missing csrf token")
	assert.Nil(t, responseCookie(rec, sessionCookieName))

	rec = post(url.Values{"_csrf": {csrf.Value}}, session, csrf)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	if c := responseCookie(rec, sessionCookieName); assert.NotNil(t, c) {
		assert.True(t, c.MaxAge < 0)
	}
}

func TestNewClaims_Expiry(t *testing.T) {
	env := newTestEnv(t)
	delta := env.srv.conf.Server.SessionExpirationDelta

	tests := []struct {
		name   string
		expiry time.Time
		want   time.Time
	}{
		{name: "token expires first", expiry: time.Now().Add(delta / 2), want: time.Now().Add(delta / 2)},
		{name: "session expires first", expiry: time.Now().Add(2 * delta), want: time.Now().Add(delta)},
		{name: "token without expiry", want: time.Now().Add(delta)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := env.srv.newClaims(teacher, &oauth2.Token{AccessToken: "t", Expiry: tt.expiry})
			require.NoError(t, err)
			assert.WithinDuration(t, tt.want, time.Unix(claims.ExpiresAt, 0), 2*time.Second)

			tok, err := env.srv.sealer.Open(claims.Token)
			require.NoError(t, err)
			assert.Equal(t, "t", tok)
		})
	}
}

func TestServer_Shutdown(t *testing.T) {
	env := newTestEnv(t)
	env.srv.signalShutdown()
	env.srv.signalShutdown() // must not block

	select {
	case <-env.srv.ShutdownSignal():
	default:
		t.Fatal("no shutdown signal")
	}
	assert.NoError(t, env.srv.Shutdown(context.Background()))
}
