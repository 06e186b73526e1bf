package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/km-arc/go-beans/framework/bean"
	"github.com/km-arc/go-beans/framework/config"
)

// configPrefix marks a placeholder that reads the property source instead
// of referencing a bean.
const configPrefix = "config."

var (
	placeholderRe = regexp.MustCompile(`^\$\{([^}]+)\}$`)
	interpolateRe = regexp.MustCompile(`\$\{config\.([^}]+)\}`)
)

// document is the top level of a definitions file.
type document struct {
	Properties map[string]any  `json:"properties"`
	Beans      json.RawMessage `json:"beans"`
}

// record is one entry under "beans".
type record struct {
	Type       string         `json:"type"`
	Scope      string         `json:"scope"`
	Alias      string         `json:"alias"`
	Args       []any          `json:"args"`
	Properties map[string]any `json:"properties"`
}

// JSONRegistry produces definitions from a JSON document:
//
//	{
//	  "properties": {"autoInitBean": true, "db": {"dsn": "postgres://..."}},
//	  "beans": {
//	    "db":    {"type": "DB", "args": ["${config.db.dsn}"]},
//	    "users": {"type": "UserService", "args": ["${db}", [1, "${db}"]],
//	              "properties": {"Limit": 10, "Cache": {"ref": "cache"}}},
//	    "userService": {"alias": "users"}
//	  }
//	}
//
// "${name}" references a bean, "${config.key}" reads the property source
// (inside longer strings it is interpolated), arrays and objects become
// lists and maps. Bean order follows the document.
type JSONRegistry struct {
	data  []byte
	path  string
	props *config.Properties
	types []bean.TypeIntrospector
}

// JSON reads definitions from data. props is layered under the document's
// own "properties" section and may be nil.
func JSON(data []byte, props *config.Properties, types ...bean.TypeIntrospector) *JSONRegistry {
	return &JSONRegistry{data: data, props: props, types: types}
}

// JSONFile reads definitions from path on every Produce, so a reload picks
// up edits.
func JSONFile(path string, props *config.Properties, types ...bean.TypeIntrospector) *JSONRegistry {
	return &JSONRegistry{path: path, props: props, types: types}
}

// Produce implements bean.Registry.
func (r *JSONRegistry) Produce() (*bean.Bundle, error) {
	data := r.data
	if r.path != "" {
		var err error
		if data, err = os.ReadFile(r.path); err != nil {
			return nil, errors.Wrap(err, "registry: read definitions")
		}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "registry: decode definitions")
	}

	props := r.props
	if doc.Properties != nil {
		props = props.Merge(config.NewProperties(doc.Properties))
	}

	defs, err := decodeBeans(doc.Beans, props)
	if err != nil {
		return nil, err
	}
	return &bean.Bundle{
		Properties:  props,
		Definitions: defs,
		Types:       append([]bean.TypeIntrospector(nil), r.types...),
	}, nil
}

// decodeBeans walks the "beans" object token by token to keep its order.
func decodeBeans(raw json.RawMessage, props *config.Properties) ([]*bean.Definition, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "registry: decode beans")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &bean.ConfigurationError{Section: "beans", Reason: "must be an object"}
	}

	var defs []*bean.Definition
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "registry: decode beans")
		}
		name := tok.(string)

		var rec record
		if err := dec.Decode(&rec); err != nil {
			return nil, errors.Wrapf(err, "registry: decode bean [%s]", name)
		}
		def, err := rec.definition(name, props)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (rec *record) definition(name string, props *config.Properties) (*bean.Definition, error) {
	v := Validate(map[string]string{
		"name":  name,
		"type":  rec.Type,
		"alias": rec.Alias,
		"scope": rec.Scope,
	}, recordRules)
	if v.Fails() {
		return nil, &bean.ConfigurationError{Section: "beans." + name, Reason: v.Errors().Error()}
	}

	scope, err := bean.ParseScope(rec.Scope)
	if err != nil {
		return nil, &bean.ConfigurationError{Section: "beans." + name, Reason: err.Error()}
	}
	// Injections on an alias are kept so the container can warn about them.
	def := bean.Define(name, rec.Type).WithScope(scope)
	if rec.Alias != "" {
		def = bean.AliasOf(name, rec.Alias)
	}
	for i, a := range rec.Args {
		val, err := value(a, props)
		if err != nil {
			return nil, errors.Wrapf(err, "registry: bean [%s] argument %d", name, i)
		}
		def.Args = append(def.Args, val)
	}
	for prop, p := range rec.Properties {
		val, err := value(p, props)
		if err != nil {
			return nil, errors.Wrapf(err, "registry: bean [%s] property %s", name, prop)
		}
		def.Set(prop, val)
	}
	return def, nil
}

// value turns a decoded JSON value into an injection value.
func value(v any, props *config.Properties) (bean.Value, error) {
	switch t := v.(type) {
	case string:
		return str(t, props)
	case []any:
		out := make([]bean.Value, len(t))
		for i, e := range t {
			val, err := value(e, props)
			if err != nil {
				return bean.Value{}, err
			}
			out[i] = val
		}
		return bean.List(out...), nil
	case map[string]any:
		if ref, ok := t["ref"].(string); ok && len(t) == 1 {
			return bean.Ref(ref), nil
		}
		out := make(map[string]bean.Value, len(t))
		for k, e := range t {
			val, err := value(e, props)
			if err != nil {
				return bean.Value{}, err
			}
			out[k] = val
		}
		return bean.Map(out), nil
	}
	return bean.Literal(v), nil
}

// str resolves placeholders. A whole-string "${config.key}" that the
// property source lacks is absent; inside a longer string it is an error.
func str(s string, props *config.Properties) (bean.Value, error) {
	if m := placeholderRe.FindStringSubmatch(s); m != nil {
		key := strings.TrimSpace(m[1])
		if !strings.HasPrefix(key, configPrefix) {
			return bean.Ref(key), nil
		}
		if val, ok := props.Lookup(strings.TrimPrefix(key, configPrefix)); ok {
			return bean.Literal(val), nil
		}
		return bean.Literal(bean.AbsentFor(key)), nil
	}

	var missing []string
	out := interpolateRe.ReplaceAllStringFunc(s, func(ph string) string {
		key := interpolateRe.FindStringSubmatch(ph)[1]
		val, ok := props.Lookup(key)
		if !ok {
			missing = append(missing, key)
			return ph
		}
		return toString(val)
	})
	if len(missing) > 0 {
		return bean.Value{}, errors.Errorf("unknown properties %s in %q", strings.Join(missing, ", "), s)
	}
	return bean.Literal(out), nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
	}
	return fmt.Sprint(v)
}
