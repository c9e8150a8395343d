package config

import "time"

// SeedRoom is a well-known room registered at startup so default
// destinations resolve without a database round trip.
type SeedRoom struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// HistoryLimit bounds the one-shot history frame sent on room join.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`

	SeedRooms []SeedRoom `mapstructure:"seed_rooms" yaml:"seed_rooms"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "haven.db",
		LogLevel:          "info",
		JWTSecret:         "",
		JWTIssuer:         "haven-server",
		JWTAudience:       "haven-clients",
		HistoryLimit:      50,
		SeedRooms: []SeedRoom{
			{ID: "lounge-1", Name: "General Lounge"},
			{ID: "gaming-1", Name: "Gaming"},
			{ID: "gaming-2", Name: "Co-op Night"},
			{ID: "music-1", Name: "Music Room"},
			{ID: "afk-1", Name: "AFK"},
		},
	}
}
