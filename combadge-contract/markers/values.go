// Copyright (c) 2026 Palantir Technologies. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package markers

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	werror "github.com/palantir/witchcraft-go-error"
)

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
)

// Resolve dereferences pointers and interfaces and calls argument-less functions, returning the
// underlying value. Functions may return a value or a value and an error.
// ok is false when the value is absent (invalid, a nil pointer or a nil function).
func Resolve(v reflect.Value) (resolved reflect.Value, ok bool, err error) {
	for {
		if !v.IsValid() {
			return reflect.Value{}, false, nil
		}
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, false, nil
			}
			if v.Kind() == reflect.Ptr && v.Type().Implements(textMarshalerType) {
				return v, true, nil
			}
			v = v.Elem()
		case reflect.Func:
			if v.IsNil() {
				return reflect.Value{}, false, nil
			}
			out, err := callProvider(v)
			if err != nil {
				return reflect.Value{}, false, err
			}
			v = out
		default:
			return v, true, nil
		}
	}
}

func callProvider(fn reflect.Value) (reflect.Value, error) {
	t := fn.Type()
	if t.NumIn() != 0 || t.NumOut() < 1 || t.NumOut() > 2 || (t.NumOut() == 2 && t.Out(1) != errorType) {
		return reflect.Value{}, werror.Error("value provider must be a func() T or func() (T, error)",
			werror.SafeParam("type", t.String()))
	}
	out := fn.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, werror.Wrap(out[1].Interface().(error), "value provider failed")
	}
	return out[0], nil
}

// FormatValues converts a value into its string representations. Slices and arrays produce one
// string per element; absent values produce none.
func FormatValues(v reflect.Value) ([]string, error) {
	v, ok, err := Resolve(v)
	if err != nil || !ok {
		return nil, err
	}
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) &&
		v.Type().Elem().Kind() != reflect.Uint8 && !v.Type().Implements(textMarshalerType) {
		var out []string
		for i := 0; i < v.Len(); i++ {
			values, err := FormatValues(v.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	}
	s, err := FormatValue(v)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

// FormatValue converts a single scalar value into a string.
func FormatValue(v reflect.Value) (string, error) {
	if v.CanInterface() {
		switch value := v.Interface().(type) {
		case encoding.TextMarshaler:
			out, err := value.MarshalText()
			if err != nil {
				return "", werror.Wrap(err, "MarshalText")
			}
			return string(out), nil
		case fmt.Stringer:
			return value.String(), nil
		}
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes()), nil
		}
	}
	return "", werror.Error("unsupported parameter value type", werror.SafeParam("type", v.Type().String()))
}

// FieldValues flattens a struct or a map with string keys into named string values.
// Struct fields are named by their `form` tag, then their `json` tag, then the field name.
func FieldValues(v reflect.Value) (map[string][]string, []string, error) {
	v, ok, err := Resolve(v)
	if err != nil || !ok {
		return nil, nil, err
	}
	out := map[string][]string{}
	var order []string
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name, omitEmpty, skip := fieldName(field)
			if skip {
				continue
			}
			if omitEmpty && v.Field(i).IsZero() {
				continue
			}
			values, err := FormatValues(v.Field(i))
			if err != nil {
				return nil, nil, werror.Wrap(err, "failed to format field", werror.SafeParam("field", field.Name))
			}
			if _, seen := out[name]; !seen {
				order = append(order, name)
			}
			out[name] = append(out[name], values...)
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, nil, werror.Error("map keys must be strings", werror.SafeParam("type", v.Type().String()))
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, key := range keys {
			values, err := FormatValues(v.MapIndex(key))
			if err != nil {
				return nil, nil, werror.Wrap(err, "failed to format map value", werror.UnsafeParam("key", key.String()))
			}
			order = append(order, key.String())
			out[key.String()] = values
		}
	default:
		return nil, nil, werror.Error("value must be a struct or a map", werror.SafeParam("type", v.Type().String()))
	}
	return out, order, nil
}

func fieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	for _, key := range []string{"form", "json"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		if tag == "-" {
			return "", false, true
		}
		name, opts, _ := strings.Cut(tag, ",")
		omitEmpty = strings.Contains(opts, "omitempty")
		if name != "" {
			return name, omitEmpty, false
		}
	}
	return field.Name, omitEmpty, false
}
