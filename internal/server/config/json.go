package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/polarmc/yggdrasil/internal/flagx"
)

// JsonConfig is the intermediate DTO for the optional JSON config file.
// Duration fields are plain integers (minutes or seconds, matching the
// corresponding flags); zero values mean "keep the current setting".
type JsonConfig struct {
	EndpointAddrHTTP           string `json:"endpoint_addr_http"`
	DatabaseDSN                string `json:"database_dsn"`
	BcryptCost                 int    `json:"bcrypt_cost"`
	AccessTokenValidityMinutes int    `json:"access_token_validity_minutes"`
	GameSessionValidityMinutes int    `json:"game_session_validity_minutes"`
	SessionSweepSeconds        int    `json:"session_sweep_seconds"`
	StoreTimeoutSeconds        int    `json:"store_timeout_seconds"`
	S3RootUser                 string `json:"s3_root_user"`
	S3RootPassword             string `json:"s3_root_password"`
	S3Bucket                   string `json:"s3_bucket"`
	S3Region                   string `json:"s3_region"`
	S3BaseEndpoint             string `json:"s3_base_endpoint"`
	TextureBaseURL             string `json:"texture_base_url"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no file is named, nothing is
// loaded. An unreadable or malformed file panics: a server started with a
// broken config file should not come up quietly on defaults.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	applyJson(config, c)
}

func applyJson(config *Config, c *JsonConfig) {
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.AccessTokenValidityMinutes != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityMinutes) * time.Minute
	}
	if c.GameSessionValidityMinutes != 0 {
		config.GameSessionValidityDuration = time.Duration(c.GameSessionValidityMinutes) * time.Minute
	}
	if c.SessionSweepSeconds != 0 {
		config.SessionSweepInterval = time.Duration(c.SessionSweepSeconds) * time.Second
	}
	if c.StoreTimeoutSeconds != 0 {
		config.StoreTimeout = time.Duration(c.StoreTimeoutSeconds) * time.Second
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.TextureBaseURL != "" {
		config.TextureBaseURL = c.TextureBaseURL
	}
}
