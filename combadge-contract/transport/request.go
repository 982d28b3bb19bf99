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

// Package transport defines the backend-neutral request and response values exchanged between
// bound service methods and backends.
package transport

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	werror "github.com/palantir/witchcraft-go-error"
)

// Request is assembled by the binder from method and parameter markers and executed by a backend.
// Backends must treat a Request as read-only.
type Request struct {
	// MethodName identifies the bound method in logs and metrics.
	MethodName string

	// HTTPMethod is the HTTP verb, e.g. GET or POST.
	HTTPMethod string
	// PathTemplate may contain {name} placeholders filled from PathParams.
	PathTemplate string
	PathParams   map[string]string
	Query        url.Values
	Header       http.Header
	Form         url.Values

	// Body is the whole request payload. BodyFields holds named payload fields.
	// At most one of the two may be used.
	Body       interface{}
	BodyFields map[string]interface{}
	// BodyCodec overrides the encoding a backend would otherwise choose for the payload.
	BodyCodec codecs.Codec

	// Operation is the SOAP operation name and Action its SOAPAction URI.
	Operation string
	Action    string

	hasBody        bool
	bodyFieldOrder []string
}

// NewRequest returns an empty request for the named method.
func NewRequest(methodName string) *Request {
	return &Request{
		MethodName: methodName,
		PathParams: map[string]string{},
		Query:      url.Values{},
		Header:     http.Header{},
		Form:       url.Values{},
		BodyFields: map[string]interface{}{},
	}
}

// SetPathParam sets the value substituted for the {name} placeholder.
func (r *Request) SetPathParam(name, value string) {
	r.PathParams[name] = value
}

// SetBody sets the whole request payload.
func (r *Request) SetBody(body interface{}) {
	r.Body = body
	r.hasBody = true
}

// SetBodyField sets a single named payload field. Fields keep the order of their first SetBodyField.
func (r *Request) SetBodyField(name string, value interface{}) {
	if _, ok := r.BodyFields[name]; !ok {
		r.bodyFieldOrder = append(r.bodyFieldOrder, name)
	}
	r.BodyFields[name] = value
}

// BodyFieldNames returns the names of BodyFields in the order they were set. Fields added to the
// map directly follow in lexical order.
func (r *Request) BodyFieldNames() []string {
	names := make([]string, 0, len(r.BodyFields))
	seen := make(map[string]struct{}, len(r.BodyFields))
	for _, name := range r.bodyFieldOrder {
		if _, ok := r.BodyFields[name]; ok {
			names = append(names, name)
			seen[name] = struct{}{}
		}
	}
	var rest []string
	for name := range r.BodyFields {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Path renders PathTemplate, escaping every substituted value.
// It returns an error if a placeholder has no value or the template is malformed.
func (r *Request) Path() (string, error) {
	template := r.PathTemplate
	var sb strings.Builder
	for {
		start := strings.IndexByte(template, '{')
		if start < 0 {
			if strings.IndexByte(template, '}') >= 0 {
				return "", werror.Error("path template contains unbalanced '}'",
					werror.SafeParam("pathTemplate", r.PathTemplate))
			}
			sb.WriteString(template)
			return sb.String(), nil
		}
		end := strings.IndexByte(template[start:], '}')
		if end < 0 {
			return "", werror.Error("path template contains unterminated placeholder",
				werror.SafeParam("pathTemplate", r.PathTemplate))
		}
		end += start
		name := template[start+1 : end]
		if name == "" || strings.ContainsAny(name, "{/") {
			return "", werror.Error("path template contains invalid placeholder",
				werror.SafeParam("pathTemplate", r.PathTemplate))
		}
		value, ok := r.PathParams[name]
		if !ok {
			return "", werror.Error("path parameter has no value",
				werror.SafeParam("pathTemplate", r.PathTemplate),
				werror.SafeParam("pathParam", name))
		}
		if strings.IndexByte(template[:start], '}') >= 0 {
			return "", werror.Error("path template contains unbalanced '}'",
				werror.SafeParam("pathTemplate", r.PathTemplate))
		}
		sb.WriteString(template[:start])
		sb.WriteString(url.PathEscape(value))
		template = template[end+1:]
	}
}

// Payload returns the request payload: the whole Body if one was set, otherwise the named
// BodyFields if any. ok is false when the request carries no payload.
func (r *Request) Payload() (payload interface{}, ok bool, err error) {
	switch {
	case r.hasBody && len(r.BodyFields) > 0:
		return nil, false, werror.Error("request sets both a whole body and body fields",
			werror.SafeParam("methodName", r.MethodName))
	case r.hasBody:
		return r.Body, true, nil
	case len(r.BodyFields) > 0:
		return r.BodyFields, true, nil
	}
	return nil, false, nil
}
