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
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
)

type methodMarkerFunc func(req *transport.Request) error

func (f methodMarkerFunc) PrepareRequest(req *transport.Request) error {
	return f(req)
}

// HTTP sets the HTTP method and path template of the request.
func HTTP(method, pathTemplate string) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		if method == "" {
			return werror.Error("HTTP method can not be empty")
		}
		req.HTTPMethod = strings.ToUpper(method)
		req.PathTemplate = pathTemplate
		return nil
	})
}

// Path sets the path template of the request.
func Path(pathTemplate string) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		req.PathTemplate = pathTemplate
		return nil
	})
}

// Operation sets the SOAP operation name of the request.
func Operation(name string) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		if name == "" {
			return werror.Error("operation name can not be empty")
		}
		req.Operation = name
		return nil
	})
}

// Action sets the SOAPAction URI of the request.
func Action(uri string) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		req.Action = uri
		return nil
	})
}

// Codec sets the codec used to encode the request payload.
func Codec(codec codecs.Codec) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		req.BodyCodec = codec
		return nil
	})
}

// Name overrides the method name reported in logs and metrics.
func Name(name string) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		req.MethodName = name
		return nil
	})
}

// StaticHeader sets a header with a fixed value on every request.
func StaticHeader(name, value string) MethodMarker {
	return methodMarkerFunc(func(req *transport.Request) error {
		req.Header.Set(name, value)
		return nil
	})
}

// Timeout bounds every call to the method by d.
func Timeout(d time.Duration) MethodMarker {
	return timeoutMarker{timeout: d}
}

type timeoutMarker struct {
	timeout time.Duration
}

func (timeoutMarker) PrepareRequest(*transport.Request) error {
	return nil
}

func (m timeoutMarker) Wrap(next CallFunc) CallFunc {
	return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		return next(ctx, req)
	}
}

// IsHTTPMethod reports whether method is a known HTTP verb.
func IsHTTPMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
