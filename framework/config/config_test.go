package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/config"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	t.Setenv(key, val) // automatically restored after test
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "APP_NAME", "APP_ENV", "APP_PORT", "BEAN_SCAN", "BEAN_AUTO_INIT",
		"BEAN_DEFINITIONS", "BEAN_INIT_METHOD", "LOG_LEVEL", "LOG_FORMAT")
	cfg := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"App.Name", cfg.App.Name, "GoBeans"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Port", cfg.App.Port, "8000"},
		{"Beans.Definitions", cfg.Beans.Definitions, ""},
		{"Beans.InitMethod", cfg.Beans.InitMethod, "Init"},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
	assert.Empty(t, cfg.Beans.Scan)
	assert.False(t, cfg.Beans.AutoInit)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t, "BEAN_SCAN", "BEAN_AUTO_INIT", "APP_NAME")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=FromFile\nBEAN_SCAN=app/services, app/repos\nBEAN_AUTO_INIT=true\n"), 0o600))
	// godotenv does not override variables that already exist, even empty ones
	for _, k := range []string{"BEAN_SCAN", "BEAN_AUTO_INIT", "APP_NAME"} {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range []string{"BEAN_SCAN", "BEAN_AUTO_INIT", "APP_NAME"} {
			os.Unsetenv(k)
		}
	})

	cfg := config.Load(path)
	assert.Equal(t, "FromFile", cfg.App.Name)
	assert.Equal(t, []string{"app/services", "app/repos"}, cfg.Beans.Scan)
	assert.True(t, cfg.Beans.AutoInit)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setEnv(t, "APP_NAME", "MyApp")
	setEnv(t, "APP_ENV", "production")
	setEnv(t, "APP_PORT", "9000")
	setEnv(t, "BEAN_DEFINITIONS", "beans.json")

	cfg := config.Load()

	assert.Equal(t, "MyApp", cfg.App.Name)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "beans.json", cfg.Beans.Definitions)
}

func TestConfig_Properties(t *testing.T) {
	setEnv(t, "BEAN_SCAN", "a,b")
	setEnv(t, "BEAN_AUTO_INIT", "1")
	setEnv(t, "APP_NAME", "Props")

	p := config.Load().Properties()
	assert.Equal(t, []string{"a", "b"}, p.BeanScan)
	assert.True(t, p.AutoInitBean)

	name, ok := p.Lookup("app.name")
	require.True(t, ok)
	assert.Equal(t, "Props", name)
}

// ── Get / GetInt / GetBool / GetList ─────────────────────────────────────────

func TestGet_ReturnsFallback(t *testing.T) {
	os.Unsetenv("MISSING_KEY")
	if got := config.Get("MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("got %q want %q", got, "fallback")
	}
}

func TestGetInt(t *testing.T) {
	setEnv(t, "SOME_INT", "42")
	assert.Equal(t, 42, config.GetInt("SOME_INT", 0))
	setEnv(t, "SOME_INT", "notanint")
	assert.Equal(t, 99, config.GetInt("SOME_INT", 99))
}

func TestGetBool(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		setEnv(t, "BOOL_KEY", val)
		if !config.GetBool("BOOL_KEY", false) {
			t.Errorf("expected true for %q", val)
		}
	}
	setEnv(t, "BOOL_KEY", "notabool")
	assert.True(t, config.GetBool("BOOL_KEY", true))
}

func TestGetList(t *testing.T) {
	setEnv(t, "LIST_KEY", " x , ,y")
	assert.Equal(t, []string{"x", "y"}, config.GetList("LIST_KEY", nil))
	assert.Equal(t, []string{"d"}, config.GetList("UNSET_LIST_KEY", []string{"d"}))
}

// ── Properties ───────────────────────────────────────────────────────────────

func TestNewProperties(t *testing.T) {
	p := config.NewProperties(map[string]any{
		"beanScan":     []any{"app/a", 3, "app/b"},
		"autoInitBean": true,
		"db":           map[string]any{"host": "127.0.0.1", "port": float64(5432)},
	})

	assert.Equal(t, []string{"app/a", "app/b"}, p.BeanScan)
	assert.True(t, p.AutoInitBean)

	host, ok := p.Lookup("db.host")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", host)

	_, ok = p.Lookup("db.missing")
	assert.False(t, ok)
	_, ok = p.Lookup("db.host.deeper")
	assert.False(t, ok)
}

func TestProperties_Merge(t *testing.T) {
	base := config.NewProperties(map[string]any{"beanScan": "a", "db": map[string]any{"host": "h", "port": 1}})
	over := config.NewProperties(map[string]any{"beanScan": []any{"a", "b"}, "autoInitBean": true, "db": map[string]any{"port": 2}})

	m := base.Merge(over)
	assert.Equal(t, []string{"a", "b"}, m.BeanScan)
	assert.True(t, m.AutoInitBean)
	host, _ := m.Lookup("db.host")
	port, _ := m.Lookup("db.port")
	assert.Equal(t, "h", host)
	assert.Equal(t, 2, port)

	var nilProps *config.Properties
	assert.Same(t, over, nilProps.Merge(over))
}
