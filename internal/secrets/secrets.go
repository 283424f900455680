// Package secrets loads engine credentials from a private YAML file so they
// need not appear in the shared config file.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultSecretsDir is the default directory for secrets
	DefaultSecretsDir = ".secrets"
	// DefaultSecretsFile is the default filename for secrets
	DefaultSecretsFile = "tblprof.yaml"
	// SecretsFileEnvVar allows overriding the secrets file location
	SecretsFileEnvVar = "TBLPROF_SECRETS_FILE"
	// SecureDirMode is the permission mode for the secrets directory
	SecureDirMode = 0700
	// SecureFileMode is the permission mode for the secrets file
	SecureFileMode = 0600
)

// Config represents the complete secrets configuration
type Config struct {
	// Engines maps an engine type (hive, postgres, ...) to its credentials.
	Engines map[string]*Credentials `yaml:"engines"`
}

// Credentials hold the login for one engine.
type Credentials struct {
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Load loads the secrets configuration from the default or override location.
// It caches the result and returns the same config on subsequent calls.
func Load() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = loadFromFile()
	})
	return globalConfig, configErr
}

// Reset clears the cached config (useful for testing)
func Reset() {
	configOnce = sync.Once{}
	globalConfig = nil
	configErr = nil
}

// GetSecretsPath returns the path to the secrets file
func GetSecretsPath() string {
	if envPath := os.Getenv(SecretsFileEnvVar); envPath != "" {
		return envPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", DefaultSecretsDir, DefaultSecretsFile)
	}
	return filepath.Join(homeDir, DefaultSecretsDir, DefaultSecretsFile)
}

// EnsureSecretsDir creates the secrets directory with secure permissions if it doesn't exist
func EnsureSecretsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	secretsDir := filepath.Join(homeDir, DefaultSecretsDir)

	info, err := os.Stat(secretsDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(secretsDir, SecureDirMode); err != nil {
			return "", fmt.Errorf("creating secrets directory: %w", err)
		}
		return secretsDir, nil
	} else if err != nil {
		return "", fmt.Errorf("checking secrets directory: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%s exists but is not a directory", secretsDir)
	}

	return secretsDir, nil
}

func loadFromFile() (*Config, error) {
	path := GetSecretsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SecretsNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}

	// Reject files other users can read.
	info, err := os.Stat(path)
	if err == nil {
		mode := info.Mode().Perm()
		if mode&0077 != 0 {
			return nil, fmt.Errorf("secrets file %s has insecure permissions (%04o). "+
				"Other users can read your engine passwords. Run: chmod 600 %s", path, mode, path)
		}
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	for name, creds := range c.Engines {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("engine entry with empty name")
		}
		if creds == nil || (creds.User == "" && creds.Password == "") {
			return fmt.Errorf("engine %q requires user or password", name)
		}
	}
	return nil
}

// ForEngine returns the credentials for an engine type, matched without
// regard to case, or nil.
func (c *Config) ForEngine(engine string) *Credentials {
	if c == nil {
		return nil
	}
	if creds, ok := c.Engines[engine]; ok {
		return creds
	}
	for name, creds := range c.Engines {
		if strings.EqualFold(name, engine) {
			return creds
		}
	}
	return nil
}

// SecretsNotFoundError is returned when the secrets file doesn't exist
type SecretsNotFoundError struct {
	Path string
}

func (e *SecretsNotFoundError) Error() string {
	return fmt.Sprintf(`secrets file not found: %s

Create %s (chmod 600) with:

engines:
  hive:
    user: "etl"
    password: "your-password"
`, e.Path, e.Path)
}

// GenerateTemplate returns a template secrets file content
func GenerateTemplate() string {
	return `# tblprof secrets
# Engine credentials kept out of the shared config file.
# Permissions should be restricted: chmod 600 ~/.secrets/tblprof.yaml

engines:
  hive:
    user: ""
    password: ""

  postgres:
    user: ""
    password: ""

  mssql:
    user: ""
    password: ""
`
}
