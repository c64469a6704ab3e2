// Package config loads the gateway's process-wide settings from a single
// JSON file: start from hardcoded defaults, then unmarshal the file on top
// so a config.json only has to name the fields it overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the gateway's full process configuration.
type Config struct {
	Database    DatabaseConfig        `json:"database"`
	GameServer  ListenerConfig        `json:"game_server"`
	ChunkServer ListenerConfig        `json:"chunk_server"`
	Dispatcher  EventDispatcherConfig `json:"event_dispatcher"`
	LogLevel    string                `json:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters for pgxpool.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`

	MaxConns int32 `json:"max_conns"`
}

// DSN returns the PostgreSQL connection string pgxpool.New expects.
func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf("&pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

// ListenerConfig holds host/port/capacity for the client-facing and
// chunk-facing TCP listeners.
type ListenerConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	MaxClients int    `json:"max_clients"`
}

// Addr returns the host:port listen address.
func (l ListenerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// EventDispatcherConfig exposes the dispatcher's internal batch sizes, so
// the ping/normal-event split is a deployment knob instead of a buried
// constant.
type EventDispatcherConfig struct {
	NormalBatchSize int `json:"normal_batch_size"`
	PingBatchSize   int `json:"ping_batch_size"`
}

// Default returns the gateway's configuration with sensible defaults. It is
// always the starting point for Load, never used standalone in production.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "mmogate",
			Password: "mmogate",
			DBName:   "mmogate",
			SSLMode:  "disable",
		},
		GameServer: ListenerConfig{
			Host:       "0.0.0.0",
			Port:       9014,
			MaxClients: 2000,
		},
		ChunkServer: ListenerConfig{
			Host:       "0.0.0.0",
			Port:       9015,
			MaxClients: 16,
		},
		Dispatcher: EventDispatcherConfig{
			NormalBatchSize: 10,
			PingBatchSize:   1,
		},
		LogLevel: "info",
	}
}

// Load reads and parses the JSON config file at path on top of Default. A
// missing file is not an error: the gateway runs on defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
