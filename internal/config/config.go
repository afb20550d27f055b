package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env           string           // Env is the current environment: local, development, production.
	HTTP          HTTPConfig       // HTTP holds the public API listener configuration.
	Monitoring    MonitoringConfig // Monitoring holds the metrics/health listener configuration.
	Postgres      PostgresConfig   // Postgres holds the database configuration.
	MigrationsDir string           // MigrationsDir is the directory with goose SQL migrations.
}

// HTTPConfig struct holds the configuration of the REST API server.
type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// MonitoringConfig struct holds the configuration of the /metrics and /healthz server.
type MonitoringConfig struct {
	Port int
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Dbname   string // Dbname is the name of the database.
	SSLMode  string // SSLMode is passed to the driver as is.
}

// DSN returns the PostgreSQL connection URL.
func (p PostgresConfig) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     p.Dbname,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}

	return dsn.String()
}

var errMissingField = errors.New("required configuration field is empty")

// envBindings maps configuration keys to the environment variables that override them.
var envBindings = map[string]string{
	"env":                  "APP_ENV",
	"http.port":            "HTTP_PORT",
	"http.allowed_origins": "CORS_ALLOWED_ORIGINS",
	"monitoring.port":      "MONITORING_PORT",
	"postgres.host":        "DB_HOST",
	"postgres.port":        "DB_PORT",
	"postgres.user":        "DB_USERNAME",
	"postgres.password":    "DB_PASSWORD",
	"postgres.db_name":     "DB_NAME",
	"postgres.sslmode":     "DB_SSLMODE",
	"migrations_dir":       "MIGRATIONS_DIR",
}

// Load reads the configuration from the YAML file pointed to by CONFIG_PATH (optional)
// and from environment variables, which take precedence. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may be provided by the orchestrator
	_ = godotenv.Load()

	vpr := viper.New()
	setDefaults(vpr)

	for key, env := range envBindings {
		if err := vpr.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}

		vpr.SetConfigFile(configPath)
		vpr.SetConfigType("yaml")
		if err := vpr.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Env: vpr.GetString("env"),
		HTTP: HTTPConfig{
			Port:            vpr.GetInt("http.port"),
			ReadTimeout:     vpr.GetDuration("http.read_timeout"),
			WriteTimeout:    vpr.GetDuration("http.write_timeout"),
			ShutdownTimeout: vpr.GetDuration("http.shutdown_timeout"),
			AllowedOrigins:  splitOrigins(vpr.GetStringSlice("http.allowed_origins")),
		},
		Monitoring: MonitoringConfig{
			Port: vpr.GetInt("monitoring.port"),
		},
		Postgres: PostgresConfig{
			Host:     vpr.GetString("postgres.host"),
			Port:     vpr.GetString("postgres.port"),
			User:     vpr.GetString("postgres.user"),
			Password: vpr.GetString("postgres.password"),
			Dbname:   vpr.GetString("postgres.db_name"),
			SSLMode:  vpr.GetString("postgres.sslmode"),
		},
		MigrationsDir: vpr.GetString("migrations_dir"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad loads the configuration and panics if it cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("config error: " + err.Error())
	}

	return cfg
}

// Validate checks that the fields without sensible defaults are present.
func (c *Config) Validate() error {
	required := map[string]string{
		"postgres.host":    c.Postgres.Host,
		"postgres.user":    c.Postgres.User,
		"postgres.db_name": c.Postgres.Dbname,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s", errMissingField, key)
		}
	}

	if c.HTTP.Port <= 0 || c.Monitoring.Port <= 0 {
		return fmt.Errorf("invalid ports: http=%d monitoring=%d", c.HTTP.Port, c.Monitoring.Port)
	}

	return nil
}

func setDefaults(vpr *viper.Viper) {
	var (
		readTimeout     = 5 * time.Second
		writeTimeout    = 10 * time.Second
		shutdownTimeout = 10 * time.Second
	)

	vpr.SetDefault("env", "local")
	vpr.SetDefault("http.port", 8080)
	vpr.SetDefault("http.read_timeout", readTimeout)
	vpr.SetDefault("http.write_timeout", writeTimeout)
	vpr.SetDefault("http.shutdown_timeout", shutdownTimeout)
	vpr.SetDefault("http.allowed_origins", []string{"*"})
	vpr.SetDefault("monitoring.port", 8081)
	vpr.SetDefault("postgres.port", "5432")
	vpr.SetDefault("postgres.sslmode", "disable")
	vpr.SetDefault("migrations_dir", "migrations")
}

// splitOrigins flattens comma separated values coming from the environment.
func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	return origins
}
