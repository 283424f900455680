// Package dbconfig provides the engine connection settings shared by the
// config and driver packages. It exists to break the import cycle between them.
package dbconfig

// EngineConfig holds the settings needed to reach the SQL engine.
// Command-line engines (hive, spark) use Binary/JDBCURL/Flags; database/sql
// engines use DSN, or the host/port fields from which config builds one.
type EngineConfig struct {
	Type string `yaml:"type" env:"TBLPROF_ENGINE" env-default:"hive"` // hive, spark, postgres, mssql, mysql, sqlite, duckdb

	// Command-line transports
	Binary  string   `yaml:"binary" env:"TBLPROF_ENGINE_BINARY"`     // Path or name of beeline / spark-sql (default from driver)
	JDBCURL string   `yaml:"jdbc_url" env:"TBLPROF_JDBC_URL"`        // beeline -u value, e.g. jdbc:hive2://host:10000/default
	Flags   []string `yaml:"flags"`                                  // Extra arguments passed verbatim to the binary
	Queue   string   `yaml:"queue" env:"TBLPROF_ENGINE_QUEUE"`       // YARN queue, passed as a session setting when set

	// database/sql transports
	DSN             string `yaml:"dsn" env:"TBLPROF_DSN"` // Full DSN; overrides the fields below
	Host            string `yaml:"host" env:"TBLPROF_ENGINE_HOST"`
	Port            int    `yaml:"port" env:"TBLPROF_ENGINE_PORT"`
	Database        string `yaml:"database" env:"TBLPROF_ENGINE_DATABASE"`
	User            string `yaml:"user" env:"TBLPROF_ENGINE_USER"`
	Password        string `yaml:"password" env:"TBLPROF_ENGINE_PASSWORD"`
	Path            string `yaml:"path" env:"TBLPROF_ENGINE_PATH"` // sqlite / duckdb database file (empty = in-memory)
	SSLMode         string `yaml:"ssl_mode"`                       // PostgreSQL: disable, require, verify-ca, verify-full
	TrustServerCert bool   `yaml:"trust_server_cert"`              // MSSQL: trust server certificate
	Encrypt         *bool  `yaml:"encrypt"`                        // MSSQL: enable TLS encryption
	MaxConns        int    `yaml:"max_conns" env-default:"4"`      // database/sql pool size

	// Kerberos (PostgreSQL: auth "kerberos" + gss_enc_mode; MSSQL: krb5 authenticator)
	Auth       string `yaml:"auth"`         // "" (password) or "kerberos"
	GSSEncMode string `yaml:"gss_enc_mode"` // PostgreSQL: disable, prefer, require
	Krb5Conf   string `yaml:"krb5_conf"`
	Keytab     string `yaml:"keytab"`
	Realm      string `yaml:"realm"`
	SPN        string `yaml:"spn"`

	// Schema qualifies table names given without one. Empty leaves them
	// unqualified so the engine's current schema applies.
	Schema string `yaml:"schema" env:"TBLPROF_SCHEMA"`

	// Session settings applied to every statement (--hiveconf, --conf, SET).
	Settings map[string]string `yaml:"settings"`
}

// SessionSettings returns the configured settings plus the queue, if any.
// The returned map is a copy.
func (c *EngineConfig) SessionSettings() map[string]string {
	out := make(map[string]string, len(c.Settings)+1)
	for k, v := range c.Settings {
		out[k] = v
	}
	if c.Queue != "" {
		if _, ok := out["mapreduce.job.queuename"]; !ok {
			out["mapreduce.job.queuename"] = c.Queue
		}
	}
	return out
}

// DSNOptions returns a map of options for building a DSN.
func (c *EngineConfig) DSNOptions() map[string]any {
	opts := make(map[string]any)
	if c.SSLMode != "" {
		opts["sslmode"] = c.SSLMode
	}
	if c.Encrypt != nil {
		opts["encrypt"] = *c.Encrypt
	}
	if c.TrustServerCert {
		opts["trustServerCertificate"] = true
	}
	return opts
}
