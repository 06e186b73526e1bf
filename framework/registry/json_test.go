package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/registry"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type DB struct {
	DSN string
}

func NewDB(dsn string) *DB { return &DB{DSN: dsn} }

type UserService struct {
	DB      *DB
	Extra   []any
	Limit   int
	BaseURL string
	Cache   *DB
	Opts    map[string]any
}

func NewUserService(db *DB, extra []any) *UserService {
	return &UserService{DB: db, Extra: extra}
}

const definitions = `{
  "properties": {
    "autoInitBean": true,
    "db": {"dsn": "postgres://local/app", "host": "db.local", "port": 5432}
  },
  "beans": {
    "db":    {"type": "DB", "args": ["${config.db.dsn}"]},
    "users": {
      "type": "UserService",
      "args": ["${db}", [1, "${db}", ["x", {"ref": "db"}]]],
      "properties": {
        "Limit": 10,
        "BaseURL": "http://${config.db.host}:${config.db.port}/v1",
        "Cache": {"ref": "db"},
        "Opts": {"timeout": "${config.missing}", "db": "${db}"}
      }
    },
    "userService": {"alias": "users"},
    "request": {"type": "DB", "scope": "prototype", "args": ["tmp"]}
  }
}`

func jsonTypes() []bean.TypeIntrospector {
	return []bean.TypeIntrospector{
		bean.TypeOf(NewDB, bean.Named("DB")),
		bean.TypeOf(NewUserService, bean.Named("UserService")),
	}
}

func load(t *testing.T, rs ...bean.Registry) (*bean.Container, error) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	c := bean.New(bean.WithLogger(logger))
	return c, c.Load(rs...)
}

// ── Produce ───────────────────────────────────────────────────────────────────

func TestJSON_ProducesOrderedDefinitions(t *testing.T) {
	b, err := registry.JSON([]byte(definitions), nil, jsonTypes()...).Produce()
	require.NoError(t, err)

	var names []string
	for _, d := range b.Definitions {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"db", "users", "userService", "request"}, names)
	assert.True(t, b.Properties.AutoInitBean)
	assert.Len(t, b.Types, 2)

	users := b.Definitions[1]
	require.Len(t, users.Args, 2)
	assert.Equal(t, bean.KindRef, users.Args[0].Kind())
	assert.Equal(t, "db", users.Args[0].RefName())
	assert.Equal(t, bean.KindList, users.Args[1].Kind())
	assert.Equal(t, []string{"db", "db"}, users.Args[1].Refs())

	assert.True(t, b.Definitions[2].IsAlias())
	assert.Equal(t, "users", b.Definitions[2].Alias)
	assert.Equal(t, bean.Prototype, b.Definitions[3].Scope)
}

func TestJSON_EndToEnd(t *testing.T) {
	c, err := load(t, registry.JSON([]byte(definitions), nil, jsonTypes()...))
	require.NoError(t, err)
	require.NoError(t, c.InitEagerBeans())

	users, err := bean.Resolve[*UserService](c, "userService")
	require.NoError(t, err)
	db, err := bean.Resolve[*DB](c, "db")
	require.NoError(t, err)

	assert.Equal(t, "postgres://local/app", db.DSN)
	assert.Same(t, db, users.DB)
	require.Len(t, users.Extra, 3)
	assert.Equal(t, float64(1), users.Extra[0])
	assert.Same(t, db, users.Extra[1])
	assert.Equal(t, []any{"x", db}, users.Extra[2])

	assert.Equal(t, 10, users.Limit)
	assert.Equal(t, "http://db.local:5432/v1", users.BaseURL)
	assert.Same(t, db, users.Cache)
	assert.Nil(t, users.Opts["timeout"], "missing property is absent")
	assert.Same(t, db, users.Opts["db"])

	assert.False(t, c.Resolved("userService"))
	assert.True(t, c.Resolved("users"))
}

func TestJSON_MissingConfigArgumentNamesPlaceholder(t *testing.T) {
	c, err := load(t, registry.JSON([]byte(`{
	  "properties": {},
	  "beans": {"db": {"type": "DB", "args": ["${config.db.dsn}"]}}
	}`), nil, jsonTypes()...))
	require.NoError(t, err)

	_, err = c.Get("db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "${config.db.dsn}")
}

func TestJSON_AliasInjectionsAreReportedAndIgnored(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := bean.New(bean.WithLogger(logger))
	require.NoError(t, c.Load(registry.JSON([]byte(`{
	  "properties": {"db": {"dsn": "postgres://local/app"}},
	  "beans": {
	    "db": {"type": "DB", "args": ["${config.db.dsn}"]},
	    "primary": {"alias": "db", "args": ["other"], "properties": {"DSN": "ignored"}}
	  }
	}`), nil, jsonTypes()...)))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "bean: injections on an alias definition are ignored" {
			warned = true
			assert.Equal(t, "primary", e.Data["bean"])
			assert.Equal(t, "db", e.Data["alias"])
		}
	}
	assert.True(t, warned)

	d, ok := c.Definition("primary")
	require.True(t, ok)
	assert.True(t, d.IsAlias())
	assert.Len(t, d.Args, 1)

	db, err := bean.Resolve[*DB](c, "primary")
	require.NoError(t, err)
	assert.Equal(t, "postgres://local/app", db.DSN)
}

func TestJSON_PropertiesLayerOverCallerProperties(t *testing.T) {
	base := config.NewProperties(map[string]any{"beanScan": "app", "db": map[string]any{"dsn": "override-me", "user": "root"}})
	b, err := registry.JSON([]byte(`{"properties": {"db": {"dsn": "file"}}, "beans": {}}`), base).Produce()
	require.NoError(t, err)

	dsn, _ := b.Properties.Lookup("db.dsn")
	user, _ := b.Properties.Lookup("db.user")
	assert.Equal(t, "file", dsn)
	assert.Equal(t, "root", user)
	assert.Equal(t, []string{"app"}, b.Properties.BeanScan)
	assert.Empty(t, b.Definitions)
}

func TestJSON_WithoutPropertiesFailsFirstMerge(t *testing.T) {
	_, err := load(t, registry.JSON([]byte(`{"beans": {"db": {"type": "DB", "args": ["x"]}}}`), nil))

	var cfgErr *bean.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "properties", cfgErr.Section)
}

func TestJSON_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		configErr bool
	}{
		{"malformed", `{"beans": `, false},
		{"beans not an object", `{"beans": []}`, true},
		{"neither type nor alias", `{"beans": {"x": {}}}`, true},
		{"unknown scope", `{"beans": {"x": {"type": "DB", "scope": "request"}}}`, true},
		{"bad name", `{"beans": {"9 lives": {"type": "DB"}}}`, true},
		{"alias to itself", `{"beans": {"x": {"alias": "x"}}}`, true},
		{"missing interpolated property", `{"beans": {"x": {"type": "DB", "args": ["http://${config.nope}"]}}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.JSON([]byte(tt.doc), config.NewProperties(nil)).Produce()
			require.Error(t, err)
			var cfgErr *bean.ConfigurationError
			assert.Equal(t, tt.configErr, errors.As(err, &cfgErr))
		})
	}
}

func TestJSONFile_ReadsOnEveryProduce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beans.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"properties": {}, "beans": {"a": {"type": "DB", "args": ["one"]}}}`), 0o600))

	r := registry.JSONFile(path, nil, jsonTypes()...)
	c, err := load(t, r)
	require.NoError(t, err)
	a, err := bean.Resolve[*DB](c, "a")
	require.NoError(t, err)
	assert.Equal(t, "one", a.DSN)

	require.NoError(t, os.WriteFile(path, []byte(`{"properties": {}, "beans": {"a": {"type": "DB", "args": ["two"]}}}`), 0o600))
	require.NoError(t, c.Reload())
	a, err = bean.Resolve[*DB](c, "a")
	require.NoError(t, err)
	assert.Equal(t, "two", a.DSN)

	_, err = registry.JSONFile(filepath.Join(t.TempDir(), "nope.json"), nil).Produce()
	assert.Error(t, err)
}
