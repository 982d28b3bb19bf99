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

type responseMarkerFunc func(resp *transport.Response, field reflect.Value) error

func (f responseMarkerFunc) Apply(resp *transport.Response, field reflect.Value) error {
	return f(resp, field)
}

// StatusCode stores the HTTP status code into an integer field.
func StatusCode() ResponseMarker {
	return responseMarkerFunc(func(resp *transport.Response, field reflect.Value) error {
		switch field.Kind() {
		case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
			field.SetInt(int64(resp.StatusCode))
			return nil
		case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.SetUint(uint64(resp.StatusCode))
			return nil
		}
		return unsupportedField("status-code", field)
	})
}

// ReasonPhrase stores the HTTP reason phrase into a string field.
func ReasonPhrase() ResponseMarker {
	return responseMarkerFunc(func(resp *transport.Response, field reflect.Value) error {
		return setString("reason", field, resp.Reason())
	})
}

// ResponseHeader stores the named header into a string or []string field.
func ResponseHeader(name string) ResponseMarker {
	return responseMarkerFunc(func(resp *transport.Response, field reflect.Value) error {
		if field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String {
			values := resp.Header.Values(name)
			out := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, v := range values {
				out.Index(i).SetString(v)
			}
			field.Set(out)
			return nil
		}
		return setString("header", field, resp.Header.Get(name))
	})
}

// Text stores the raw body into a string or []byte field.
func Text() ResponseMarker {
	return responseMarkerFunc(func(resp *transport.Response, field reflect.Value) error {
		if field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8 {
			field.SetBytes(append([]byte(nil), resp.Body...))
			return nil
		}
		return setString("text", field, resp.Text())
	})
}

func setString(marker string, field reflect.Value, value string) error {
	if field.Kind() != reflect.String {
		return unsupportedField(marker, field)
	}
	field.SetString(value)
	return nil
}

func unsupportedField(marker string, field reflect.Value) error {
	return werror.Error("response marker does not support field type",
		werror.SafeParam("responseMarker", marker),
		werror.SafeParam("type", field.Type().String()))
}
