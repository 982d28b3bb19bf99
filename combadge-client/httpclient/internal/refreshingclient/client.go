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

// Package refreshingclient builds *http.Client values whose connections, backoff and timeout follow
// refreshable parameters.
package refreshingclient

import (
	"context"
	"net/http"
	"time"

	"github.com/palantir/pkg/refreshable"
)

// RefreshableHTTPClient provides the *http.Client built from the current parameters.
type RefreshableHTTPClient interface {
	refreshable.Refreshable
	CurrentHTTPClient() *http.Client
}

type refreshableHTTPClient struct {
	refreshable.Refreshable // contains *http.Client
}

func (r refreshableHTTPClient) CurrentHTTPClient() *http.Client {
	return r.Current().(*http.Client)
}

// NewRefreshableHTTPClient returns a client using rt whose timeout follows timeout.
// Redirects are not followed; the caller decides whether to retry against the Location.
func NewRefreshableHTTPClient(_ context.Context, rt http.RoundTripper, timeout refreshable.Duration) RefreshableHTTPClient {
	return refreshableHTTPClient{
		Refreshable: timeout.Map(func(i interface{}) interface{} {
			return &http.Client{
				Timeout:   i.(time.Duration),
				Transport: rt,
				CheckRedirect: func(*http.Request, []*http.Request) error {
					return http.ErrUseLastResponse
				},
			}
		}),
	}
}
