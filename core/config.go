package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                string
		Host                   string
		DebugHost              string
		ReadTimeout            time.Duration
		WriteTimeout           time.Duration
		ShutdownTimeout        time.Duration
		SessionExpirationDelta time.Duration
		SecureCookies          bool
	}

	GoogleConfig struct {
		ClientID     string `validate:"required"`
		ClientSecret string `validate:"required"`
		RedirectURL  string `validate:"required,url"`
		// ClassroomEndpoint overrides the Classroom API base URL (tests, proxies).
		ClassroomEndpoint string
	}

	ClassroomConfig struct {
		FixturesPath string
		MaxParallel  int `validate:"min=1"`
	}

	DevConfig struct {
		Email string
		Name  string
	}

	LogConfig struct {
		Level string `validate:"oneof=debug info warn error"`
	}

	Config struct {
		Env               string
		Debug             bool
		TestMode          bool
		AppName           string
		Build             string
		SecretKey         string `validate:"min=32"`
		CoordinatorEmails []string
		RollbarToken      string
		WorkDir           string

		Server    ServerConfig
		Google    GoogleConfig
		Classroom ClassroomConfig
		Dev       DevConfig
		Log       LogConfig
	}
)

// defaultSecretKey is public; it only suits local fixture mode.
const defaultSecretKey = "v2b#k8q!m@x4r7t$w9z1c3e5g7j0n2p4s6u8"

// NewConfig loads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the upper-cased ENV, e.g. PROD_SECRET_KEY.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("app_name", "Semillero Digital")
	v.SetDefault("build", "dev")
	v.SetDefault("secret_key", defaultSecretKey)
	v.SetDefault("coordinator_emails", "")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("server_address", ":3000")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_debug_host", "localhost:4000")
	v.SetDefault("server_read_timeout", 5*time.Second)
	v.SetDefault("server_write_timeout", 10*time.Second)
	v.SetDefault("server_shutdown_timeout", 5*time.Second)
	v.SetDefault("server_session_expiration_delta", 8*time.Hour)
	v.SetDefault("server_secure_cookies", false)
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("google_redirect_url", "http://localhost:3000/auth/callback")
	v.SetDefault("google_classroom_endpoint", "")
	v.SetDefault("classroom_fixtures_path", "")
	v.SetDefault("classroom_max_parallel", 8)
	v.SetDefault("dev_email", "coordinador@localhost")
	v.SetDefault("dev_name", "Coordinador Local")
	v.SetDefault("log_level", "debug")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	}
	v.SetEnvPrefix(env)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:               env,
		Debug:             v.GetBool("debug"),
		TestMode:          v.GetBool("test_mode"),
		AppName:           v.GetString("app_name"),
		Build:             v.GetString("build"),
		SecretKey:         v.GetString("secret_key"),
		CoordinatorEmails: SplitList(v.GetString("coordinator_emails")),
		RollbarToken:      v.GetString("rollbar_token"),
		WorkDir:           workDir,
		Server: ServerConfig{
			Address:                v.GetString("server_address"),
			Host:                   v.GetString("server_host"),
			DebugHost:              v.GetString("server_debug_host"),
			ReadTimeout:            v.GetDuration("server_read_timeout"),
			WriteTimeout:           v.GetDuration("server_write_timeout"),
			ShutdownTimeout:        v.GetDuration("server_shutdown_timeout"),
			SessionExpirationDelta: v.GetDuration("server_session_expiration_delta"),
			SecureCookies:          v.GetBool("server_secure_cookies"),
		},
		Google: GoogleConfig{
			ClientID:          v.GetString("google_client_id"),
			ClientSecret:      v.GetString("google_client_secret"),
			RedirectURL:       v.GetString("google_redirect_url"),
			ClassroomEndpoint: v.GetString("google_classroom_endpoint"),
		},
		Classroom: ClassroomConfig{
			FixturesPath: v.GetString("classroom_fixtures_path"),
			MaxParallel:  v.GetInt("classroom_max_parallel"),
		},
		Dev: DevConfig{
			Email: v.GetString("dev_email"),
			Name:  v.GetString("dev_name"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("log_level")),
		},
	}
}

// UseFixtures reports whether Classroom data (and sign-in) should come from a local fixture file.
// Only honoured in debug mode so a stray setting cannot bypass Google in production.
func (c *Config) UseFixtures() bool {
	return c.Debug && c.Classroom.FixturesPath != ""
}

// Validate checks the settings the running mode depends on.
// Outside fixture mode the session key must be set explicitly, and PROD never runs in debug mode.
func (c *Config) Validate(validate *validator.Validate) error {
	if c.Env == "PROD" && c.Debug {
		return NewValidationError(nil, FieldError{Field: "debug", Error: "must be off in PROD"})
	}
	if err := validate.Struct(c.Classroom); err != nil {
		return err
	}
	if err := validate.Struct(c.Log); err != nil {
		return err
	}
	if c.UseFixtures() {
		return nil
	}
	if c.SecretKey == defaultSecretKey {
		return NewValidationError(nil, FieldError{Field: "secret_key", Error: "must be set; the built-in default is only for fixture mode"})
	}
	if err := validate.Var(c.SecretKey, "min=32"); err != nil {
		return NewValidationError(nil, FieldError{Field: "secret_key", Error: "must be at least 32 characters"})
	}
	return validate.Struct(c.Google)
}
