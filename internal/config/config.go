// Package config loads tblprof settings from a YAML file with environment
// overrides and fills engine defaults from the driver registry.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/logging"
	"github.com/johndauphine/tblprof/internal/secrets"
)

// DefaultFile is the config file read when none is named.
const DefaultFile = "tblprof.yaml"

// Config is the complete tblprof configuration.
type Config struct {
	Engine  dbconfig.EngineConfig `yaml:"engine"`
	Profile ProfileConfig         `yaml:"profile"`
	History HistoryConfig         `yaml:"history"`
	Logging LoggingConfig         `yaml:"logging"`
}

// ProfileConfig holds defaults for profiling requests. Command-line flags
// take precedence.
type ProfileConfig struct {
	Sample  string `yaml:"sample" env:"TBLPROF_SAMPLE"`   // absolute row count or fraction in (0,1)
	Exclude string `yaml:"exclude" env:"TBLPROF_EXCLUDE"` // drop columns containing this substring

	// WideTableWarning logs a warning when a profiled table has more columns.
	// Zero disables the warning.
	WideTableWarning int  `yaml:"wide_table_warning" env:"TBLPROF_WIDE_TABLE_WARNING" env-default:"100"`
	HideProgress     bool `yaml:"hide_progress" env:"TBLPROF_HIDE_PROGRESS"`
}

// HistoryConfig controls the run log.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled" env:"TBLPROF_HISTORY_DISABLED"`
	Path     string `yaml:"path" env:"TBLPROF_HISTORY_PATH"` // default ~/.tblprof/history.db
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"TBLPROF_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"TBLPROF_LOG_FORMAT" env-default:"text"`
}

// Load reads path (when it exists) and applies environment overrides, then
// the given overrides (command-line flags), engine defaults and secrets.
// A missing file is not an error: configuration then comes from the
// environment alone.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := &Config{}

	if path != "" && fileExists(path) {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: reading config %s: %v", apperrors.ErrInvalidArguments, path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("%w: reading environment: %v", apperrors.ErrInvalidArguments, err)
		}
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the config, then fills engine defaults, secrets and
// the DSN. Load calls it; code that builds a Config by hand calls it directly.
func (c *Config) Finalize() error {
	if err := c.validate(); err != nil {
		return err
	}
	c.applyDefaults()
	if err := c.applySecrets(); err != nil {
		return err
	}
	c.buildDSN()
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (c *Config) applyDefaults() {
	e := &c.Engine
	d, err := driver.Get(e.Type)
	if err != nil {
		return
	}
	e.Type = d.Name()

	defaults := d.Defaults()
	if e.Host != "" && e.Port == 0 {
		e.Port = defaults.Port
	}
	if e.Binary == "" {
		e.Binary = defaults.Binary
	}
	// Command-line engines take the database as part of the connection URL.
	if defaults.Binary != "" && e.Database == "" {
		e.Database = defaults.Schema
	}

	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath()
	}
	c.History.Path = expandHome(c.History.Path)
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tblprof", "history.db")
	}
	return filepath.Join(home, ".tblprof", "history.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// applySecrets fills a missing engine user or password from the secrets
// file. A missing secrets file is fine.
func (c *Config) applySecrets() error {
	if c.Engine.Password != "" || c.Engine.DSN != "" {
		return nil
	}
	sec, err := secrets.Load()
	if err != nil {
		var notFound *secrets.SecretsNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArguments, err)
	}
	creds := sec.ForEngine(c.Engine.Type)
	if creds == nil {
		return nil
	}
	if c.Engine.User == "" {
		c.Engine.User = creds.User
	}
	c.Engine.Password = creds.Password
	logging.Debug("Using %s credentials from %s", c.Engine.Type, secrets.GetSecretsPath())
	return nil
}

// buildDSN derives a DSN for network database/sql engines when only
// host-level fields are configured.
func (c *Config) buildDSN() {
	e := &c.Engine
	if e.DSN != "" || e.Host == "" {
		return
	}
	switch e.Type {
	case "postgres":
		e.DSN = c.buildPostgresDSN(e.Host, e.Port, e.Database, e.User, e.Password,
			e.SSLMode, e.Auth, e.GSSEncMode)
	case "mssql":
		encrypt := ""
		if e.Encrypt != nil {
			encrypt = fmt.Sprintf("%t", *e.Encrypt)
		}
		e.DSN = c.buildMSSQLDSN(e.Host, e.Port, e.Database, e.User, e.Password,
			encrypt, e.TrustServerCert, e.Auth, e.Krb5Conf, e.Keytab, e.Realm, e.SPN)
	case "mysql":
		e.DSN = c.buildMySQLDSN(e.Host, e.Port, e.Database, e.User, e.Password, e.SSLMode)
	}
}

// buildPostgresDSN returns a postgres:// URL. Credentials are query-escaped
// and the database path-escaped.
func (c *Config) buildPostgresDSN(host string, port int, database, user, password, sslMode, auth, gssEncMode string) string {
	if sslMode == "" {
		sslMode = "prefer"
	}
	params := url.Values{}
	params.Set("sslmode", sslMode)

	var userInfo string
	if strings.EqualFold(auth, "kerberos") {
		userInfo = url.QueryEscape(user)
		if gssEncMode != "" {
			params.Set("gssencmode", gssEncMode)
		}
	} else {
		userInfo = url.QueryEscape(user) + ":" + url.QueryEscape(password)
	}

	return fmt.Sprintf("postgres://%s@%s:%d/%s?%s",
		userInfo, host, port, url.PathEscape(database), params.Encode())
}

// buildMSSQLDSN returns a sqlserver:// URL. With auth "kerberos" the krb5
// authenticator parameters replace the password.
func (c *Config) buildMSSQLDSN(host string, port int, database, user, password, encrypt string,
	trustCert bool, auth, krb5Conf, keytab, realm, spn string) string {
	params := url.Values{}
	params.Set("database", database)
	if encrypt != "" {
		params.Set("encrypt", encrypt)
	}
	if trustCert {
		params.Set("TrustServerCertificate", "true")
	}

	if strings.EqualFold(auth, "kerberos") {
		params.Set("authenticator", "krb5")
		params.Set("krb5-username", user)
		if krb5Conf != "" {
			params.Set("krb5-configfile", krb5Conf)
		}
		if keytab != "" {
			params.Set("krb5-keytabfile", keytab)
		}
		if realm != "" {
			params.Set("krb5-realm", realm)
		}
		if spn != "" {
			params.Set("ServerSPN", spn)
		}
		return fmt.Sprintf("sqlserver://%s:%d?%s", host, port, params.Encode())
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, params.Encode())
}

// buildMySQLDSN returns a go-sql-driver/mysql DSN:
// user:password@tcp(host:port)/database?params
func (c *Config) buildMySQLDSN(host string, port int, database, user, password, sslMode string) string {
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("charset", "utf8mb4")
	params.Set("loc", "UTC")

	switch strings.ToLower(sslMode) {
	case "disable", "disabled", "false":
		params.Set("tls", "false")
	case "require", "required", "true", "verify-full", "verify_full":
		params.Set("tls", "true")
	case "verify-ca", "verify_ca":
		params.Set("tls", "skip-verify")
	default:
		params.Set("tls", "preferred")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, database, params.Encode())
}

func (c *Config) validate() error {
	e := &c.Engine
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	if e.Type == "" {
		return fmt.Errorf("%w: engine.type is required (available: %s)",
			apperrors.ErrInvalidArguments, strings.Join(driver.Available(), ", "))
	}
	d, err := driver.Get(e.Type)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArguments, err)
	}

	if e.Port < 0 || e.Port > 65535 {
		return fmt.Errorf("%w: engine.port %d out of range", apperrors.ErrInvalidArguments, e.Port)
	}
	if e.MaxConns < 0 {
		return fmt.Errorf("%w: engine.max_conns must not be negative", apperrors.ErrInvalidArguments)
	}
	if e.Auth != "" && !strings.EqualFold(e.Auth, "kerberos") && !strings.EqualFold(e.Auth, "password") {
		return fmt.Errorf("%w: engine.auth must be password or kerberos, got %q", apperrors.ErrInvalidArguments, e.Auth)
	}

	switch d.Name() {
	case "postgres", "mssql", "mysql":
		if e.DSN == "" && e.Host == "" {
			return fmt.Errorf("%w: %s requires engine.dsn or engine.host", apperrors.ErrInvalidArguments, d.Name())
		}
	}

	if e.Schema != "" {
		e.Schema = strings.ToLower(e.Schema)
		if err := dialect.ValidateIdentifier(e.Schema); err != nil {
			return fmt.Errorf("engine.schema: %w", err)
		}
	}

	if c.Profile.WideTableWarning < 0 {
		return fmt.Errorf("%w: profile.wide_table_warning must not be negative", apperrors.ErrInvalidArguments)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); c.Logging.Level != "" && err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArguments, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", apperrors.ErrInvalidArguments, c.Logging.Format)
	}
	return nil
}
