package config

import "time"

// Config holds runtime settings for the SalonMate client.
//
// Units: RequestTimeout is a time.Duration (e.g., 15*time.Second).
// StorageSecret, when set, seals the persisted session at rest.
// CallbackAddr, when set, starts a loopback listener for OAuth redirects.
type Config struct {
	APIBaseURL         string        `env:"SALONMATE_API_URL"`
	DatabasePath       string        `env:"SALONMATE_DB_PATH"`
	RequestTimeout     time.Duration `env:"SALONMATE_REQUEST_TIMEOUT"`
	LogLevel           string        `env:"SALONMATE_LOG_LEVEL"`
	LogFormat          string        `env:"SALONMATE_LOG_FORMAT"`
	StorageSecret      string        `env:"SALONMATE_STORAGE_SECRET"`
	AuthenticatedRoute string        `env:"SALONMATE_AUTHENTICATED_ROUTE"`
	LoginRoute         string        `env:"SALONMATE_LOGIN_ROUTE"`
	CallbackAddr       string        `env:"SALONMATE_CALLBACK_ADDR"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000/api/v1"
	c.DatabasePath = "salonmate.db"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.StorageSecret = ""
	c.AuthenticatedRoute = "/dashboard"
	c.LoginRoute = "/login"
	c.CallbackAddr = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
