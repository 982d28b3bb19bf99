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

	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
)

type parameterMarkerFunc func(req *transport.Request, value reflect.Value) error

func (f parameterMarkerFunc) PrepareRequest(req *transport.Request, value reflect.Value) error {
	return f(req, value)
}

// PathParam fills the {name} placeholder of the path template.
func PathParam(name string) ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		values, err := FormatValues(value)
		if err != nil {
			return werror.Wrap(err, "invalid path parameter", werror.SafeParam("pathParam", name))
		}
		switch len(values) {
		case 0:
			return nil
		case 1:
			req.SetPathParam(name, values[0])
			return nil
		}
		return werror.Error("path parameter must have a single value", werror.SafeParam("pathParam", name))
	})
}

// Query adds the value to the named query parameter. Slices add one value per element, and
// several parameters may share a name.
func Query(name string) ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		values, err := FormatValues(value)
		if err != nil {
			return werror.Wrap(err, "invalid query parameter", werror.SafeParam("queryParam", name))
		}
		for _, v := range values {
			req.Query.Add(name, v)
		}
		return nil
	})
}

// Header adds the value to the named header.
func Header(name string) ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		values, err := FormatValues(value)
		if err != nil {
			return werror.Wrap(err, "invalid header", werror.SafeParam("header", name))
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
		return nil
	})
}

// FormField adds the value to the named form field. Several parameters may share a name.
func FormField(name string) ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		values, err := FormatValues(value)
		if err != nil {
			return werror.Wrap(err, "invalid form field", werror.SafeParam("formField", name))
		}
		for _, v := range values {
			req.Form.Add(name, v)
		}
		return nil
	})
}

// FormData adds every field of a struct or map value to the form.
func FormData() ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		fields, order, err := FieldValues(value)
		if err != nil {
			return werror.Wrap(err, "invalid form data")
		}
		for _, name := range order {
			for _, v := range fields[name] {
				req.Form.Add(name, v)
			}
		}
		return nil
	})
}

// Body uses the value as the whole request payload.
func Body() ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		resolved, ok, err := Resolve(value)
		if err != nil {
			return werror.Wrap(err, "invalid body")
		}
		if ok {
			req.SetBody(resolved.Interface())
		}
		return nil
	})
}

// BodyField sets the named field of the request payload.
func BodyField(name string) ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		resolved, ok, err := Resolve(value)
		if err != nil {
			return werror.Wrap(err, "invalid body field", werror.SafeParam("bodyField", name))
		}
		if ok {
			req.SetBodyField(name, resolved.Interface())
		}
		return nil
	})
}

// Default applies marker with fallback when the argument is the zero value of its type.
func Default(marker ParameterMarker, fallback string) ParameterMarker {
	return parameterMarkerFunc(func(req *transport.Request, value reflect.Value) error {
		if !value.IsValid() || value.IsZero() {
			value = reflect.ValueOf(fallback)
		}
		return marker.PrepareRequest(req, value)
	})
}
