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
	"math/rand"
	"net/http"
	"net/url"

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal"
	"github.com/palantir/go-combadge/combadge-client/httpclient/internal/refreshingclient"
	"github.com/palantir/pkg/bytesbuffers"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

// A Client executes requests to a configured service.
//
// The Get/Head/Post/Put/Delete methods are for conveniently setting the method type and calling Do()
type Client interface {
	// Do executes a full request. Any input or output should be specified via params.
	// Unless WithRawResponseBody is used, the response body is fully read and closed by the time Do returns.
	//
	// In the case of a response with StatusCode >= 400, Do() will return a nil response and a non-nil error.
	// Use StatusCodeFromError(err) to retrieve the code from the error and WithRequestErrorDecoder(nil)
	// to receive the response instead.
	Do(ctx context.Context, params ...RequestParam) (*http.Response, error)

	Get(ctx context.Context, params ...RequestParam) (*http.Response, error)
	Head(ctx context.Context, params ...RequestParam) (*http.Response, error)
	Post(ctx context.Context, params ...RequestParam) (*http.Response, error)
	Put(ctx context.Context, params ...RequestParam) (*http.Response, error)
	Delete(ctx context.Context, params ...RequestParam) (*http.Response, error)
}

type clientImpl struct {
	client       refreshingclient.RefreshableHTTPClient
	middlewares  []Middleware
	errorDecoder ErrorDecoder

	uris         refreshable.StringSlice
	maxAttempts  refreshable.IntPtr // 0 means no limit. If nil, uses 2*len(uris).
	backoff      refreshingclient.BackoffSource
	bufferPool   bytesbuffers.Pool
	userAgent    string
}

func (c *clientImpl) Get(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	return c.Do(ctx, append(params, WithRequestMethod(http.MethodGet))...)
}

func (c *clientImpl) Head(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	return c.Do(ctx, append(params, WithRequestMethod(http.MethodHead))...)
}

func (c *clientImpl) Post(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	return c.Do(ctx, append(params, WithRequestMethod(http.MethodPost))...)
}

func (c *clientImpl) Put(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	return c.Do(ctx, append(params, WithRequestMethod(http.MethodPut))...)
}

func (c *clientImpl) Delete(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	return c.Do(ctx, append(params, WithRequestMethod(http.MethodDelete))...)
}

func (c *clientImpl) Do(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	uris := c.uris.CurrentStringSlice()
	if len(uris) == 0 {
		return nil, werror.ErrorWithContextParams(ctx, "httpclient URLs must not be empty")
	}
	attempts := 2 * len(uris)
	if c.maxAttempts != nil {
		if confMaxAttempts := c.maxAttempts.CurrentIntPtr(); confMaxAttempts != nil {
			attempts = *confMaxAttempts
		}
	}
	retrier := internal.NewRequestRetrierWithOffset(uris, c.backoff.Start(ctx), attempts, rand.Intn(len(uris)))

	var resp *http.Response
	var err error
	for retrier.ShouldGetNextURI(resp, err) {
		uri, retryErr := retrier.GetNextURI(ctx, resp, err)
		if retryErr != nil {
			if resp == nil && err == nil {
				err = retryErr
			}
			break
		}
		internal.DrainBody(resp)
		resp, err = c.doOnce(ctx, uri, params...)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *clientImpl) doOnce(ctx context.Context, baseURI string, params ...RequestParam) (*http.Response, error) {
	req, reqMiddlewares, err := c.newRequest(ctx, baseURI, params...)
	if err != nil {
		return nil, err
	}

	// shallow copy so we can overwrite the Transport with a wrapped one.
	clientCopy := *c.client.CurrentHTTPClient()
	transport := wrapTransport(clientCopy.Transport, c.middlewares...)
	clientCopy.Transport = wrapTransport(transport, reqMiddlewares...)

	resp, respErr := clientCopy.Do(req)
	return resp, unwrapURLError(ctx, respErr)
}

// unwrapURLError converts a *url.Error to a werror. We need this because all
// errors from the stdlib's client.Do are wrapped in *url.Error, and if we
// were to blindly return that we would lose any werror params stored on the
// underlying Err.
func unwrapURLError(ctx context.Context, respErr error) error {
	if respErr == nil {
		return nil
	}
	urlErr, ok := respErr.(*url.Error)
	if !ok {
		return respErr
	}
	params := []werror.Param{werror.SafeParam("requestMethod", urlErr.Op)}
	if parsedURL, _ := url.Parse(urlErr.URL); parsedURL != nil {
		params = append(params,
			werror.SafeParam("requestHost", parsedURL.Host),
			werror.UnsafeParam("requestPath", parsedURL.Path))
	}
	return werror.WrapWithContextParams(ctx, urlErr.Err, "httpclient request failed", params...)
}
