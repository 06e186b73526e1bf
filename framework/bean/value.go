package bean

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags an injection Value.
type Kind int

const (
	KindLiteral Kind = iota
	KindRef
	KindList
	KindMap
)

// Value is an injection value: a literal, a reference to another bean, or a
// collection of values resolved element by element.
type Value struct {
	kind    Kind
	literal any
	ref     string
	list    []Value
	entries map[string]Value
}

// absent records which placeholder, if any, had no value.
type absent struct{ source string }

func (a absent) String() string {
	if a.source == "" {
		return "<absent>"
	}
	return "<absent ${" + a.source + "}>"
}

// Absent is the sentinel literal that leaves a property unassigned.
var Absent any = absent{}

// AbsentFor is Absent remembering the placeholder that produced it, so a
// constructor argument left without a value can say which one.
func AbsentFor(placeholder string) any { return absent{source: placeholder} }

// Literal injects v verbatim. Go slices and maps held by a literal are plain
// data and are never walked.
func Literal(v any) Value { return Value{kind: KindLiteral, literal: v} }

// Ref injects the bean called name.
func Ref(name string) Value { return Value{kind: KindRef, ref: name} }

// List injects a []any built from vs.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Map injects a map[string]any built from entries.
func Map(entries map[string]Value) Value { return Value{kind: KindMap, entries: entries} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// RefName returns the referenced bean name for KindRef values.
func (v Value) RefName() string { return v.ref }

// Refs lists every bean name referenced by v, depth first.
func (v Value) Refs() []string {
	switch v.kind {
	case KindRef:
		return []string{v.ref}
	case KindList:
		var out []string
		for _, e := range v.list {
			out = append(out, e.Refs()...)
		}
		return out
	case KindMap:
		var out []string
		for _, k := range sortedKeys(v.entries) {
			out = append(out, v.entries[k].Refs()...)
		}
		return out
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindRef:
		return "ref(" + v.ref + ")"
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := sortedKeys(v.entries)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.entries[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("%v", v.literal)
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(absent)
	return ok
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
