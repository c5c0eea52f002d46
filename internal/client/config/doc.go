// Package config loads runtime configuration for the SalonMate client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. SALONMATE_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API
//	-d string   path of the local session database
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration, so the timeout can be either a string
// like "15s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.salonmate.kr/api/v1",
//	  "database_path": "salonmate.db",
//	  "request_timeout": "15s",
//	  "log_level": "debug",
//	  "log_format": "json",
//	  "callback_addr": "127.0.0.1:8765"
//	}
//
// # Environment
//
//	SALONMATE_API_URL, SALONMATE_DB_PATH, SALONMATE_REQUEST_TIMEOUT,
//	SALONMATE_LOG_LEVEL, SALONMATE_LOG_FORMAT, SALONMATE_STORAGE_SECRET,
//	SALONMATE_AUTHENTICATED_ROUTE, SALONMATE_LOGIN_ROUTE, SALONMATE_CALLBACK_ADDR
package config
