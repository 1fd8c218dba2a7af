package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "dbconfig.yaml"
	EnvPrefix   = "PIZZASEED"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrConfigExists  = errors.New("config file already exists")
)

type Config struct {
	Provider string `json:"provider" mapstructure:"provider" yaml:"provider"`
	Host     string `json:"host" mapstructure:"host" yaml:"host"`
	Port     string `json:"port" mapstructure:"port" yaml:"port"`
	User     string `json:"user" mapstructure:"user" yaml:"user"`
	Password string `json:"password" mapstructure:"password" yaml:"password"`
	DBName   string `json:"dbname" mapstructure:"dbname" yaml:"dbname"`
	Schema   string `json:"schema,omitempty" mapstructure:"schema" yaml:"schema,omitempty"`
	SSLMode  string `json:"sslmode,omitempty" mapstructure:"sslmode" yaml:"sslmode,omitempty"`
}

// MissingKeysError lists every required key that was absent or empty.
type MissingKeysError struct {
	Path string
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing required keys in %s: %s", e.Path, strings.Join(e.Keys, ", "))
}

func (e *MissingKeysError) Unwrap() error {
	return ErrInvalidConfig
}

var allKeys = []string{"provider", "host", "port", "user", "password", "dbname", "schema", "sslmode"}

// Load reads the YAML document at path. PIZZASEED_<KEY> environment
// variables override values from the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configuration file '%s' not found: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range allKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "postgresql"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
}

func (c *Config) Validate(path string) error {
	supported := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	ok := false
	for _, p := range supported {
		if c.Provider == p {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: unsupported database provider: %s. Supported providers: %v", ErrInvalidConfig, c.Provider, supported)
	}

	values := map[string]string{
		"host":     c.Host,
		"port":     c.Port,
		"user":     c.User,
		"password": c.Password,
		"dbname":   c.DBName,
	}
	required := []string{"host", "port", "user", "password", "dbname"}
	if c.IsSQLite() {
		required = []string{"dbname"}
	}

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{Path: path, Keys: missing}
	}

	if !c.IsSQLite() {
		port, err := strconv.Atoi(c.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: port %q is not a valid TCP port", ErrInvalidConfig, c.Port)
		}
	}
	return nil
}

func (c *Config) IsSQLite() bool {
	return c.Provider == "sqlite" || c.Provider == "sqlite3"
}

// DatabaseURL builds the driver connection string for the configured provider.
func (c *Config) DatabaseURL() (string, error) {
	switch c.Provider {
	case "postgresql", "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   net.JoinHostPort(c.Host, c.Port),
			Path:   "/" + c.DBName,
		}
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
		return u.String(), nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, c.Port)
		mc.DBName = c.DBName
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	case "sqlite", "sqlite3":
		return fmt.Sprintf("file:%s?_foreign_keys=on", c.DBName), nil
	default:
		return "", fmt.Errorf("%w: unsupported database provider: %s", ErrInvalidConfig, c.Provider)
	}
}

// Template is the sample written by `pizzaseed init`.
func Template() Config {
	return Config{
		Provider: "postgresql",
		Host:     "localhost",
		Port:     "5432",
		User:     "myuser",
		Password: "mypassword",
		DBName:   "rushmore_db",
		Schema:   "pizzeria",
		SSLMode:  "disable",
	}
}

func WriteTemplate(path string) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := yaml.Marshal(Template())
	if err != nil {
		return fmt.Errorf("failed to encode config template: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
