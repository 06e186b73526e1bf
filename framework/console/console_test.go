package console_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/app"
	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/console"
	"github.com/km-arc/go-beans/framework/registry"
)

type Store struct {
	Path  string
	Peers []any
}

func setup(a *app.Application) error {
	a.Scan(registry.Component[Store]("store",
		registry.Inject("Path", bean.Literal("/var/lib/beans")),
		registry.TypeName("Store"),
	))
	return nil
}

func run(t *testing.T, definitions string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "panic")
	t.Setenv("BEAN_AUTO_INIT", "false")
	t.Setenv("BEAN_DEFINITIONS", "")

	dir := t.TempDir()
	flags := []string{"--env", filepath.Join(dir, "missing.env")}
	if definitions != "" {
		path := filepath.Join(dir, "beans.json")
		require.NoError(t, os.WriteFile(path, []byte(definitions), 0o600))
		flags = append(flags, "--definitions", path)
	}

	var out bytes.Buffer
	cli := console.New(setup)
	cli.SetOutput(&out)
	cli.SetArgs(append(args, flags...)...)
	err := cli.Exec()
	return out.String(), err
}

const wired = `{"beans": {
  "mirror": {"type": "Store", "scope": "prototype", "properties": {"Peers": ["${store}"]}},
  "backup": {"alias": "store"}
}}`

func TestCLI_List(t *testing.T) {
	out, err := run(t, wired, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `store\s+Store\s+singleton\s+false`, out)
	assert.Regexp(t, `mirror\s+Store\s+prototype\s+false`, out)
	assert.Regexp(t, `backup\s+-> store`, out)
	assert.Regexp(t, `http\.handler\s+http\.Admin\s+singleton\s+true`, out)
}

func TestCLI_Get(t *testing.T) {
	out, err := run(t, wired, "get", "mirror")
	require.NoError(t, err)
	assert.Contains(t, out, `Path: (string) (len=14) "/var/lib/beans"`)
	assert.Contains(t, out, "Peers:")
}

func TestCLI_GetErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"get"}},
		{"unknown bean", []string{"get", "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, wired, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCLI_Check(t *testing.T) {
	out, err := run(t, wired, "check", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   mirror")
	assert.Contains(t, out, "ok   backup")
	assert.Contains(t, out, bean.StatConstructed)
}

func TestCLI_CheckFailure(t *testing.T) {
	out, err := run(t, `{"beans": {
	  "loop": {"type": "Store", "properties": {"Peers": ["${loop2}"]}},
	  "loop2": {"type": "Store", "properties": {"Peers": ["${loop}"]}},
	  "dangling": {"alias": "ghost"}
	}}`, "check")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "beans failed to resolve")
	assert.Contains(t, out, "FAIL loop:")
	assert.Contains(t, out, "FAIL dangling:")
	assert.Contains(t, out, "ok   store")
}

func TestCLI_BadDefinitions(t *testing.T) {
	_, err := run(t, `{"beans": {"x": {"scope": "weird"}}}`, "list")
	var cfg *bean.ConfigurationError
	require.True(t, errors.As(err, &cfg), "got %v", err)
}
