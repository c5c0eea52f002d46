package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/salonmate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Absent keys keep the value already in Config.
type JsonConfig struct {
	APIBaseURL         *string         `json:"api_base_url"`
	DatabasePath       *string         `json:"database_path"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	LogLevel           *string         `json:"log_level"`
	LogFormat          *string         `json:"log_format"`
	StorageSecret      *string         `json:"storage_secret"`
	AuthenticatedRoute *string         `json:"authenticated_route"`
	LoginRoute         *string         `json:"login_route"`
	CallbackAddr       *string         `json:"callback_addr"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := configFileArg(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.StorageSecret, jc.StorageSecret)
	setString(&cfg.AuthenticatedRoute, jc.AuthenticatedRoute)
	setString(&cfg.LoginRoute, jc.LoginRoute)
	setString(&cfg.CallbackAddr, jc.CallbackAddr)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
