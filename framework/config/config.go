package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App   AppConfig
	Beans BeansConfig
	Log   LogConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	Port  string
}

// BeansConfig feeds the container's property source.
type BeansConfig struct {
	Scan        []string // BEAN_SCAN, comma separated package prefixes
	AutoInit    bool     // BEAN_AUTO_INIT
	Definitions string   // BEAN_DEFINITIONS, path to a JSON definitions file
	InitMethod  string   // BEAN_INIT_METHOD
}

type LogConfig struct {
	Level  string // panic | fatal | error | warn | info | debug | trace
	Format string // text | json
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoBeans"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", false),
			Port:  env("APP_PORT", "8000"),
		},
		Beans: BeansConfig{
			Scan:        GetList("BEAN_SCAN", nil),
			AutoInit:    envBool("BEAN_AUTO_INIT", false),
			Definitions: env("BEAN_DEFINITIONS", ""),
			InitMethod:  env("BEAN_INIT_METHOD", "Init"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "text"),
		},
	}
}

// Properties returns the property source the container consults.
func (c *Config) Properties() *Properties {
	return &Properties{
		BeanScan:     append([]string(nil), c.Beans.Scan...),
		AutoInitBean: c.Beans.AutoInit,
		Values: map[string]any{
			"app": map[string]any{
				"name":  c.App.Name,
				"env":   c.App.Env,
				"debug": c.App.Debug,
				"port":  c.App.Port,
			},
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// GetList returns a comma separated env value with blanks dropped.
func GetList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
