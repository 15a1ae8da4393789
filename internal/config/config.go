// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database file. Empty selects the
	// in-memory repository.
	DBPath string `koanf:"db_path"`

	// KFactor is the maximum total rating movement per comparison round.
	KFactor float64 `koanf:"k_factor"`

	// DefaultRating is assigned to players on first sighting.
	DefaultRating int `koanf:"default_rating"`

	// InactivityThresholdDays is the number of consecutive missed days
	// after which a player is flagged inactive.
	InactivityThresholdDays int `koanf:"inactivity_threshold_days"`

	// QueueSize bounds the in-memory announcement queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize caps the ingress message-id dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New builds a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		DBPath:                  "",
		KFactor:                 32,
		DefaultRating:           1000,
		InactivityThresholdDays: 3,
		QueueSize:               1024,
		DedupeSize:              100_000,
		MaxLeaderboardLimit:     100,
	}
}
