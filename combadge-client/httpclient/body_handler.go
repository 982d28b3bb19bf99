// Copyright (c) 2018 Palantir Technologies. All rights reserved.
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
	"context"
	"fmt"
	"net/http"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/pkg/bytesbuffers"
	werror "github.com/palantir/witchcraft-go-error"
)

// bodyMiddleware encodes the outgoing payload and decodes the incoming one for a single request.
type bodyMiddleware struct {
	out        outgoingBody
	in         incomingBody
	bufferPool bytesbuffers.Pool
}

type outgoingBody struct {
	value   interface{}
	encoder codecs.Encoder // nil sends value, a RequestBody, as is
}

type incomingBody struct {
	target  interface{}
	decoder codecs.Decoder
	raw     bool // the caller reads and closes the body
}

func (b *bodyMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	release, err := b.attach(req)
	if err != nil {
		return nil, err
	}
	resp, err := next.RoundTrip(req)
	release()
	if err != nil {
		return nil, err
	}
	if b.in.raw || resp == nil || resp.Body == nil {
		return resp, nil
	}
	if err := b.in.decode(req.Context(), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// attach sets the encoded payload as the body of req. release hands any pooled buffer back and is
// called once the round trip finished.
func (b *bodyMiddleware) attach(req *http.Request) (release func(), err error) {
	noop := func() {}
	switch {
	case b.out.value == nil:
		return noop, nil
	case b.out.encoder == nil:
		raw, ok := b.out.value.(RequestBody)
		if !ok {
			return nil, werror.ErrorWithContextParams(req.Context(), "request body has no encoder",
				werror.SafeParam("requestBodyType", fmt.Sprintf("%T", b.out.value)))
		}
		return noop, raw.setRequestBody(req)
	case b.bufferPool == nil:
		data, err := b.out.encoder.Marshal(b.out.value)
		if err != nil {
			return nil, werror.WrapWithContextParams(req.Context(), err, "failed to encode request body")
		}
		return noop, RequestBodyInMemory(data).setRequestBody(req)
	}
	buf := b.bufferPool.Get()
	release = func() { b.bufferPool.Put(buf) }
	if err := b.out.encoder.Encode(buf, b.out.value); err != nil {
		release()
		return nil, werror.WrapWithContextParams(req.Context(), err, "failed to encode request body")
	}
	if err := RequestBodyInMemory(buf.Bytes()).setRequestBody(req); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// decode reads resp into the target and closes the body. Empty, 204 and 3xx responses leave the
// target untouched.
func (in incomingBody) decode(ctx context.Context, resp *http.Response) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	if in.target == nil || resp.ContentLength == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	if err := in.decoder.Decode(resp.Body, in.target); err != nil {
		return werror.WrapWithContextParams(ctx, err, "failed to decode response body",
			werror.SafeParam("statusCode", resp.StatusCode))
	}
	return nil
}
