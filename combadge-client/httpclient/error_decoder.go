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

package httpclient

import (
	"io"
	"net/http"

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal"
	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
)

// maxErrorBodyBytes bounds how much of an error response is read.
const maxErrorBodyBytes = 1 << 20

// ErrorDecoder implementations declare whether or not they should be used to handle certain http responses, and return
// decoded errors when invoked. Custom implementations can be used when consumers expect structured errors in response
// bodies.
type ErrorDecoder interface {
	// Handles returns whether or not the decoder considers the response an error.
	Handles(resp *http.Response) bool
	// DecodeError returns a decoded error, or an error encountered while trying to decode.
	// DecodeError should never return nil.
	DecodeError(resp *http.Response) error
}

// ErrorDecoderFunc adapts a function to an ErrorDecoder handling every status >= 400.
type ErrorDecoderFunc func(resp *http.Response) error

func (f ErrorDecoderFunc) Handles(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusBadRequest
}

func (f ErrorDecoderFunc) DecodeError(resp *http.Response) error {
	return f(resp)
}

func errorDecoderMiddleware(errorDecoder ErrorDecoder) Middleware {
	return MiddlewareFunc(func(req *http.Request, next http.RoundTripper) (*http.Response, error) {
		resp, err := next.RoundTrip(req)
		// if error is already set, it is more severe than our HTTP error. Just return it.
		if resp == nil || err != nil {
			return nil, err
		}
		if errorDecoder.Handles(resp) {
			defer internal.DrainBody(resp)
			return nil, errorDecoder.DecodeError(resp)
		}
		return resp, nil
	})
}

// restErrorDecoder converts responses with status >= 400 into errors. Structured remote errors in JSON bodies
// become errors.Error values; 308, 429 and 503 become QoS errors; everything else becomes a werror carrying the
// status code.
type restErrorDecoder struct{}

var _ ErrorDecoder = restErrorDecoder{}

func (d restErrorDecoder) Handles(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusBadRequest || resp.StatusCode == http.StatusPermanentRedirect
}

func (d restErrorDecoder) DecodeError(resp *http.Response) error {
	params := []werror.Param{werror.SafeParam("statusCode", resp.StatusCode)}
	if qos, ok := errors.QOSFromResponse(resp.StatusCode, resp.Header); ok {
		if location := resp.Header.Get("Location"); location != "" {
			params = append(params, werror.SafeParam("location", location))
		}
		return werror.Wrap(qos, "server returned a QoS status", params...)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return werror.Wrap(err, "server returned an error and failed to read body", params...)
	}
	if len(body) == 0 {
		return werror.Error("server returned a status >= 400", params...)
	}
	if codec, ok := codecs.FromContentType(resp.Header.Get("Content-Type")); ok && codec == codecs.JSON {
		if remoteErr, unmarshalErr := errors.UnmarshalError(body); unmarshalErr == nil {
			return werror.Wrap(remoteErr, "server returned an error", params...)
		}
	}
	params = append(params, werror.UnsafeParam("responseBody", string(body)))
	return werror.Error("server returned a status >= 400", params...)
}

// StatusCodeFromError retrieves the 'statusCode' parameter from the provided werror.
// If the error is not a werror or does not have the statusCode param, ok is false.
//
// The default client error decoder sets the statusCode parameter on its returned errors. Note that, if a custom error
// decoder is used, this function will only return a status code for the error if the custom decoder sets a 'statusCode'
// parameter on the error.
func StatusCodeFromError(err error) (statusCode int, ok bool) {
	return internal.StatusCodeFromError(err)
}

// LocationFromError retrieves the 'location' parameter from the provided werror.
func LocationFromError(err error) (location string, ok bool) {
	u, ok := internal.LocationFromError(err)
	if !ok {
		return "", false
	}
	return u.String(), true
}
