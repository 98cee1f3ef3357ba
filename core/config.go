package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Credential modes of the API client.
const (
	CredentialsInclude = "include" // keep cookies between requests
	CredentialsOmit    = "omit"
)

type (
	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		WorkDir      string
		RollbarToken string

		Client  ClientConfig
		Gateway GatewayConfig
	}

	// ClientConfig is the shared base configuration of the API client.
	ClientConfig struct {
		BaseURL        string
		Timeout        time.Duration
		Credentials    string
		DefaultHeaders map[string]string
		RefreshWindow  time.Duration // refresh the token when it expires within this window
	}

	GatewayConfig struct {
		Host            string
		AllowOrigins    []string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
		MaxBodyBytes    int64
	}
)

// NewConfig loads the configuration from the defaults, the optional `config/.env.<env>` file and
// the environment, in that order of precedence (lowest first).
// Environment variables are prefixed with the uppercase env name, eg. `DEV_CLIENT_BASEURL`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Olympia")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("client.baseURL", "http://localhost:8000/api")
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.credentials", CredentialsInclude)
	v.SetDefault("client.refreshWindow", 5*time.Minute)

	v.SetDefault("gateway.host", ":8080")
	v.SetDefault("gateway.allowOrigins", []string{"http://localhost:3000"})
	v.SetDefault("gateway.shutdownTimeout", 5*time.Second)
	v.SetDefault("gateway.disableReqLogs", false)
	v.SetDefault("gateway.maxBodyBytes", int64(10<<20))

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		WorkDir:      workDir,
		RollbarToken: v.GetString("rollbarToken"),
		Client: ClientConfig{
			BaseURL:        strings.TrimRight(v.GetString("client.baseURL"), "/"),
			Timeout:        v.GetDuration("client.timeout"),
			Credentials:    CleanString(v.GetString("client.credentials"), true /* lower */),
			DefaultHeaders: defaultHeaders(v),
			RefreshWindow:  v.GetDuration("client.refreshWindow"),
		},
		Gateway: GatewayConfig{
			Host:            v.GetString("gateway.host"),
			AllowOrigins:    v.GetStringSlice("gateway.allowOrigins"),
			ShutdownTimeout: v.GetDuration("gateway.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("gateway.disableReqLogs"),
			MaxBodyBytes:    v.GetInt64("gateway.maxBodyBytes"),
		},
	}
}

// defaultHeaders merges `client.headers` (eg. `Accept-Language: fr`) over the built-in headers.
func defaultHeaders(v *viper.Viper) map[string]string {
	headers := map[string]string{"Accept": "application/json"}
	for k, val := range v.GetStringMapString("client.headers") {
		headers[k] = val
	}
	return headers
}
