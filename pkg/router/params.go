package router

import (
	"fmt"
	"reflect"
	"strconv"
)

// Params maps parameter names to their values. Repeating parameters
// (":path+", ":path*") carry one value per segment, the others exactly one.
type Params map[string][]string

// Get returns the first value for key, or "".
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns every value for key.
func (p Params) Values(key string) []string {
	return p[key]
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Set replaces the values of key.
func (p Params) Set(key string, values ...string) {
	p[key] = values
}

// Add appends a value to key.
func (p Params) Add(key, value string) {
	p[key] = append(p[key], value)
}

// Decode fills the `param` tagged fields of the struct target points to.
//
//	type DetailParams struct {
//	    ID   int      `param:"id"`
//	    Path []string `param:"path"`
//	}
//
// Slice fields receive every value, scalar fields the first one. Missing
// keys leave the field untouched.
func (p Params) Decode(target any) error {
	if target == nil {
		return nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer, got %s", v.Kind())
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to struct, got pointer to %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("param")
		if name == "" {
			continue
		}

		values, ok := p[name]
		if !ok || len(values) == 0 {
			continue
		}

		fieldValue := v.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		if err := setField(fieldValue, values); err != nil {
			return fmt.Errorf("parsing param %q: %w", name, err)
		}
	}

	return nil
}

func setField(field reflect.Value, values []string) error {
	if field.Kind() == reflect.Slice {
		out := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			if err := setScalar(out.Index(i), v); err != nil {
				return err
			}
		}
		field.Set(out)
		return nil
	}
	return setScalar(field, values[0])
}

// setScalar sets a non-slice field from a string.
func setScalar(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}

	return nil
}
