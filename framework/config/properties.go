package config

import (
	"strings"
)

// Properties is the property source merged into the container with the
// first batch of definitions. BeanScan and AutoInitBean are the recognised
// options; Values carries free-form settings addressed by dotted keys.
type Properties struct {
	BeanScan     []string
	AutoInitBean bool
	Values       map[string]any
}

// NewProperties builds Properties from a decoded "properties" section.
func NewProperties(m map[string]any) *Properties {
	p := &Properties{Values: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case "beanScan":
			p.BeanScan = toStrings(v)
		case "autoInitBean":
			b, _ := v.(bool)
			p.AutoInitBean = b
		default:
			p.Values[k] = v
		}
	}
	return p
}

// Lookup resolves a dotted key ("db.host") through nested maps.
func (p *Properties) Lookup(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	switch key {
	case "beanScan":
		return p.BeanScan, true
	case "autoInitBean":
		return p.AutoInitBean, true
	}
	var cur any = p.Values
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Merge returns a copy of p with other's settings layered on top. New scan
// targets are appended, Values are merged key by key.
func (p *Properties) Merge(other *Properties) *Properties {
	if p == nil {
		return other
	}
	if other == nil {
		return p
	}
	out := &Properties{
		BeanScan:     union(p.BeanScan, other.BeanScan),
		AutoInitBean: p.AutoInitBean || other.AutoInitBean,
		Values:       mergeMaps(p.Values, other.Values),
	}
	return out
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, s := range b {
		found := false
		for _, have := range out {
			if have == s {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		bm, ok1 := out[k].(map[string]any)
		om, ok2 := v.(map[string]any)
		if ok1 && ok2 {
			out[k] = mergeMaps(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
