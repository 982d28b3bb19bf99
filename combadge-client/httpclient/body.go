// Copyright (c) 2024 Palantir Technologies. All rights reserved.
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
	"bytes"
	"io"
	"net/http"
)

// RequestBody sets the body of an outgoing request without encoding.
type RequestBody interface {
	setRequestBody(req *http.Request) error
}

type requestBodyFunc func(req *http.Request) error

func (f requestBodyFunc) setRequestBody(req *http.Request) error {
	return f(req)
}

// RequestBodyInMemory sends data, which may be resent on redirects and retries.
func RequestBodyInMemory(data []byte) RequestBody {
	return requestBodyFunc(func(req *http.Request) error {
		getBody := func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
		req.ContentLength = int64(len(data))
		req.Body, _ = getBody()
		req.GetBody = getBody
		return nil
	})
}

// RequestBodyStreamOnce sends the reader returned by open. The request can not be retried once the body
// has been consumed, so callers should prefer RequestBodyInMemory for small payloads.
func RequestBodyStreamOnce(open func() (io.ReadCloser, error)) RequestBody {
	return requestBodyFunc(func(req *http.Request) error {
		body, err := open()
		if err != nil {
			return err
		}
		req.ContentLength = -1
		req.Body = body
		return nil
	})
}
