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

package transport

import (
	"io"
	"net/http"
	"strings"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	werror "github.com/palantir/witchcraft-go-error"
)

// Response is the fully read result of a backend call.
type Response struct {
	StatusCode int
	// Status is the reason phrase, e.g. "Not Found".
	Status string
	Header http.Header
	Body   []byte
	// Codec decodes Body. JSON is used when it is nil.
	Codec codecs.Decoder
}

// ReadResponse reads and closes the body of resp.
// The codec is selected from the Content-Type header.
func ReadResponse(resp *http.Response) (*Response, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, werror.Wrap(err, "failed to read response body",
			werror.SafeParam("statusCode", resp.StatusCode))
	}
	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     reasonPhrase(resp.Status, resp.StatusCode),
		Header:     resp.Header,
		Body:       body,
	}
	if codec, ok := codecs.FromContentType(resp.Header.Get("Content-Type")); ok {
		out.Codec = codec
	}
	return out, nil
}

// reasonPhrase strips the status code prefix of an http.Response status line.
func reasonPhrase(status string, code int) string {
	if _, reason, ok := strings.Cut(status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(code)
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsEmpty reports whether the response has no body.
func (r *Response) IsEmpty() bool {
	return len(r.Body) == 0
}

// Reason returns the reason phrase, falling back to the standard text for the status code.
func (r *Response) Reason() string {
	if r.Status != "" {
		return r.Status
	}
	return http.StatusText(r.StatusCode)
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decoder returns the decoder for the body.
func (r *Response) Decoder() codecs.Decoder {
	if r.Codec != nil {
		return r.Codec
	}
	return codecs.JSON
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if err := r.Decoder().Unmarshal(r.Body, v); err != nil {
		return werror.Wrap(err, "failed to decode response body",
			werror.SafeParam("statusCode", r.StatusCode))
	}
	return nil
}
