package hooks

import (
	"fmt"
	"reflect"
	"strings"
)

var baseType = reflect.TypeOf(Base{})

type field struct {
	name     string
	required bool
}

// schema is the field set a hook struct declares through its yaml tags.
type schema struct {
	fields []field
}

// schemaOf reads the yaml field names of the struct behind h. The embedded
// Base is skipped; `hook:"required"` marks a required field.
func schemaOf(h Hook) (schema, error) {
	t := reflect.TypeOf(h)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return schema{}, fmt.Errorf("%w: New must return a pointer to a struct, got %v", ErrInvalidSpec, t)
	}
	t = t.Elem()

	var s schema
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == baseType {
			continue
		}
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("yaml")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "inline") {
			return schema{}, fmt.Errorf("%w: field %s: only Base may be inlined", ErrInvalidSpec, f.Name)
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if IsBaseField(name) {
			return schema{}, fmt.Errorf("%w: field %s redeclares base field %q", ErrInvalidSpec, f.Name, name)
		}
		s.fields = append(s.fields, field{name: name, required: f.Tag.Get("hook") == "required"})
	}
	return s, nil
}

func (s schema) has(name string) bool {
	for _, f := range s.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// own returns the declared field names minus the ambient ones, in
// declaration order.
func (s schema) own(ambient []string) []string {
	var out []string
	for _, f := range s.fields {
		if contains(ambient, f.name) {
			continue
		}
		out = append(out, f.name)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
