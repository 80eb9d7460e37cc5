// Package config defines defaults and environment overrides for the chat
// server.
package config

import "time"

// StoreConfig locates the account database.
type StoreConfig struct {
	DBPath string `json:"db_path"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr            string        `json:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Config is the full server configuration.
type Config struct {
	HTTP   HTTPConfig   `json:"http"`
	Socket SocketConfig `json:"socket"`
	Room   RoomConfig   `json:"room"`
	Auth   AuthConfig   `json:"auth"`
	Store  StoreConfig  `json:"store"`
	Log    LogConfig    `json:"log"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":3000",
			ShutdownTimeout: 30 * time.Second,
		},
		Socket: DefaultSocketConfig(),
		Room:   DefaultRoomConfig(),
		Auth:   DefaultAuthConfig(),
		Store:  StoreConfig{DBPath: "data/chat.db"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}
