package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Transport TransportConfig `yaml:"transport"`
	MCP       MCPConfig       `yaml:"mcp"`
	Watch     WatchConfig     `yaml:"watch"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type AuthConfig struct {
	SessionTTL        time.Duration `yaml:"session_ttl"`
	MinPasswordLength int           `yaml:"min_password_length"`
	BcryptCost        int           `yaml:"bcrypt_cost"`
}

// TransportConfig selects how the server is reached: "http" serves the
// JSON-RPC, websocket and MCP endpoints; "stdio" serves MCP on stdin/stdout.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultUser is the account email MCP tools act as in stdio mode.
	DefaultUser string `yaml:"default_user"`
}

// WatchConfig controls refreshing live queries when another process
// writes to the database file.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "taskboard.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Auth: AuthConfig{
			SessionTTL:        30 * 24 * time.Hour,
			MinPasswordLength: 6,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 100 * time.Millisecond,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TASKBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q (want http or stdio)", c.Transport.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Transport.Mode == "stdio" && c.MCP.DefaultUser == "" {
		return fmt.Errorf("mcp.default_user is required in stdio mode")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("TASKBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TASKBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("TASKBOARD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TASKBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("TASKBOARD_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if ttl := os.Getenv("TASKBOARD_SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_SESSION_TTL: %w", err)
		}
		cfg.Auth.SessionTTL = d
	}
	if mode := os.Getenv("TASKBOARD_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = strings.ToLower(mode)
	}
	if enabled := os.Getenv("TASKBOARD_MCP_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_MCP_ENABLED: %w", err)
		}
		cfg.MCP.Enabled = v
	}
	if user := os.Getenv("TASKBOARD_MCP_DEFAULT_USER"); user != "" {
		cfg.MCP.DefaultUser = user
	}
	if enabled := os.Getenv("TASKBOARD_WATCH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_WATCH_ENABLED: %w", err)
		}
		cfg.Watch.Enabled = v
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
