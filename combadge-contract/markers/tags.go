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
	"reflect"
	"strings"
	"time"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	werror "github.com/palantir/witchcraft-go-error"
)

// Struct tag keys understood on method fields.
const (
	TagHTTP    = "http"
	TagSOAP    = "soap"
	TagTimeout = "timeout"
	TagCodec   = "codec"
	TagName    = "name"
	TagErrors  = "errors"
)

// Struct tag keys understood on request and response fields.
const (
	TagPath     = "path"
	TagQuery    = "query"
	TagHeader   = "header"
	TagForm     = "form"
	TagBody     = "body"
	TagDefault  = "default"
	TagResponse = "response"
)

// MethodSpec is the metadata parsed from the tags of a method field.
type MethodSpec struct {
	Markers []MethodMarker
	// ErrorModels lists error model names in match order.
	ErrorModels []string
}

// ParseMethodTag parses the method markers of a method field, e.g.
//
//	GetUser func(context.Context, GetUserRequest) (User, error) `http:"GET /users/{id}" errors:"NotFound" timeout:"5s"`
func ParseMethodTag(tag reflect.StructTag) (MethodSpec, error) {
	var spec MethodSpec
	if value, ok := tag.Lookup(TagName); ok {
		if value == "" {
			return MethodSpec{}, werror.Error("name tag can not be empty")
		}
		spec.Markers = append(spec.Markers, Name(value))
	}
	if value, ok := tag.Lookup(TagHTTP); ok {
		parts := strings.Fields(value)
		if len(parts) == 0 || len(parts) > 2 || !IsHTTPMethod(parts[0]) {
			return MethodSpec{}, werror.Error(`http tag must have the form "METHOD /path"`, werror.SafeParam("tag", value))
		}
		var path string
		if len(parts) == 2 {
			path = parts[1]
		}
		spec.Markers = append(spec.Markers, HTTP(parts[0], path))
	}
	if value, ok := tag.Lookup(TagSOAP); ok {
		operation, options, _ := strings.Cut(value, ",")
		operation = strings.TrimSpace(operation)
		if operation == "" {
			return MethodSpec{}, werror.Error("soap tag must name an operation", werror.SafeParam("tag", value))
		}
		spec.Markers = append(spec.Markers, Operation(operation))
		if options != "" {
			key, action, found := strings.Cut(strings.TrimSpace(options), "=")
			if !found || key != "action" || action == "" {
				return MethodSpec{}, werror.Error("unknown soap tag option", werror.SafeParam("tag", value))
			}
			spec.Markers = append(spec.Markers, Action(action))
		}
	}
	if value, ok := tag.Lookup(TagCodec); ok {
		codec, found := codecs.ByName(value)
		if !found {
			return MethodSpec{}, werror.Error("unknown codec", werror.SafeParam("codec", value))
		}
		spec.Markers = append(spec.Markers, Codec(codec))
	}
	if value, ok := tag.Lookup(TagTimeout); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return MethodSpec{}, werror.Wrap(err, "invalid timeout tag", werror.SafeParam("tag", value))
		}
		if d <= 0 {
			return MethodSpec{}, werror.Error("timeout must be positive", werror.SafeParam("tag", value))
		}
		spec.Markers = append(spec.Markers, Timeout(d))
	}
	if value, ok := tag.Lookup(TagErrors); ok {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				spec.ErrorModels = append(spec.ErrorModels, name)
			}
		}
	}
	return spec, nil
}

// ParseParameterTag parses the parameter marker of a request struct field.
// ok is false for fields without a parameter tag and for fields tagged "-".
func ParseParameterTag(field reflect.StructField) (marker ParameterMarker, ok bool, err error) {
	var found []string
	for _, key := range []string{TagPath, TagQuery, TagHeader, TagForm, TagBody} {
		if _, exists := field.Tag.Lookup(key); exists {
			found = append(found, key)
		}
	}
	switch len(found) {
	case 0:
		if _, exists := field.Tag.Lookup(TagDefault); exists {
			return nil, false, werror.Error("default tag requires a parameter tag",
				werror.SafeParam("field", field.Name))
		}
		return nil, false, nil
	case 1:
	default:
		return nil, false, werror.Error("field has more than one parameter tag",
			werror.SafeParam("field", field.Name),
			werror.SafeParam("tags", found))
	}
	key := found[0]
	value := field.Tag.Get(key)
	if value == "-" {
		return nil, false, nil
	}
	name, options, _ := strings.Cut(value, ",")
	switch key {
	case TagPath:
		marker = PathParam(nameOrField(name, field))
	case TagQuery:
		marker = Query(nameOrField(name, field))
	case TagHeader:
		marker = Header(nameOrField(name, field))
	case TagForm:
		if options == "inline" {
			marker = FormData()
		} else {
			marker = FormField(nameOrField(name, field))
		}
	case TagBody:
		if name == "" {
			marker = Body()
		} else {
			marker = BodyField(name)
		}
	}
	if fallback, exists := field.Tag.Lookup(TagDefault); exists {
		marker = Default(marker, fallback)
	}
	return marker, true, nil
}

func nameOrField(name string, field reflect.StructField) string {
	if name != "" {
		return name
	}
	return field.Name
}

// ParseResponseTag parses the response marker of a response model field.
// ok is false for fields without a response tag.
func ParseResponseTag(field reflect.StructField) (marker ResponseMarker, ok bool, err error) {
	value, exists := field.Tag.Lookup(TagResponse)
	if !exists {
		return nil, false, nil
	}
	kind := field.Type.Kind()
	isStringSlice := kind == reflect.Slice && field.Type.Elem().Kind() == reflect.String
	isBytes := kind == reflect.Slice && field.Type.Elem().Kind() == reflect.Uint8
	var supported bool
	switch {
	case value == "status-code":
		marker = StatusCode()
		switch kind {
		case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			supported = true
		}
	case value == "reason":
		marker, supported = ReasonPhrase(), kind == reflect.String
	case value == "text":
		marker, supported = Text(), kind == reflect.String || isBytes
	case strings.HasPrefix(value, "header="):
		name := strings.TrimPrefix(value, "header=")
		if name == "" {
			return nil, false, werror.Error("response header tag must name a header", werror.SafeParam("field", field.Name))
		}
		marker, supported = ResponseHeader(name), kind == reflect.String || isStringSlice
	default:
		return nil, false, werror.Error("unknown response tag",
			werror.SafeParam("field", field.Name),
			werror.SafeParam("tag", value))
	}
	if !supported {
		return nil, false, werror.Error("response marker does not support field type",
			werror.SafeParam("field", field.Name),
			werror.SafeParam("tag", value),
			werror.SafeParam("type", field.Type.String()))
	}
	return marker, true, nil
}
