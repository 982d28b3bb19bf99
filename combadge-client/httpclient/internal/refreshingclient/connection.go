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

package refreshingclient

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/palantir/pkg/refreshable"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// ConnParams describe how a client reaches the service URIs. Dialing, proxy, TLS and pooling are
// kept together since a change to any of them needs a new *http.Transport.
type ConnParams struct {
	DialTimeout time.Duration
	KeepAlive   time.Duration

	// Proxy is an http, https, socks5 or socks5h URL. It takes precedence over ProxyFromEnvironment.
	Proxy                *url.URL
	ProxyFromEnvironment bool

	TLS          *tls.Config
	DisableHTTP2 bool

	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	ExpectContinueTimeout time.Duration
}

// ConnSource provides the ConnParams of a client as they change.
type ConnSource struct {
	refreshable.Refreshable // contains ConnParams
}

// StaticConnSource returns a source that always provides p.
func StaticConnSource(p ConnParams) ConnSource {
	return ConnSource{Refreshable: refreshable.NewDefaultRefreshable(p)}
}

func (s ConnSource) Params() ConnParams {
	return s.Current().(ConnParams)
}

// Derive returns a source following s with edit applied to every value.
func (s ConnSource) Derive(edit func(p *ConnParams)) ConnSource {
	return ConnSource{Refreshable: s.Map(func(i interface{}) interface{} {
		p := i.(ConnParams)
		edit(&p)
		return p
	})}
}

// Transport round trips through an *http.Transport built from the current ConnParams. A change to
// the params swaps in a new transport and closes the idle connections of the old one.
type Transport struct {
	transports refreshable.Refreshable // contains *http.Transport
}

func NewTransport(ctx context.Context, src ConnSource) *Transport {
	var (
		mu   sync.Mutex
		prev *http.Transport
	)
	return &Transport{
		transports: src.Map(func(i interface{}) interface{} {
			next := buildTransport(ctx, i.(ConnParams))
			mu.Lock()
			defer mu.Unlock()
			if prev != nil {
				prev.CloseIdleConnections()
			}
			prev = next
			return next
		}),
	}
}

// CurrentTransport returns the transport new requests are sent through.
func (t *Transport) CurrentTransport() *http.Transport {
	return t.transports.Current().(*http.Transport)
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.CurrentTransport().RoundTrip(req)
}

func buildTransport(ctx context.Context, p ConnParams) *http.Transport {
	dialer := &net.Dialer{Timeout: p.DialTimeout, KeepAlive: p.KeepAlive}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       p.TLS,
		MaxIdleConns:          p.MaxIdleConns,
		MaxIdleConnsPerHost:   p.MaxIdleConnsPerHost,
		IdleConnTimeout:       p.IdleConnTimeout,
		TLSHandshakeTimeout:   p.TLSHandshakeTimeout,
		ResponseHeaderTimeout: p.ResponseHeaderTimeout,
		ExpectContinueTimeout: p.ExpectContinueTimeout,
	}
	switch {
	case p.Proxy != nil && isSocksScheme(p.Proxy.Scheme):
		transport.DialContext = socksDialContext(ctx, p.Proxy, dialer)
	case p.Proxy != nil:
		transport.Proxy = http.ProxyURL(p.Proxy)
	case p.ProxyFromEnvironment:
		transport.Proxy = http.ProxyFromEnvironment
	}
	if !p.DisableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			svc1log.FromContext(ctx).Error("HTTP/2 unavailable on client transport", svc1log.Stacktrace(err))
		}
	}
	return transport
}

// isSocksScheme reports whether scheme names a proxy that is reached through the dialer rather
// than through CONNECT.
func isSocksScheme(scheme string) bool {
	return scheme == "socks5" || scheme == "socks5h"
}

func socksDialContext(ctx context.Context, proxyURL *url.URL, direct *net.Dialer) func(context.Context, string, string) (net.Conn, error) {
	d, err := proxy.FromURL(proxyURL, direct)
	if err != nil {
		// schemes are checked when the proxy URL is parsed, so this only logs
		svc1log.FromContext(ctx).Error("Dialing directly, socks proxy unusable",
			svc1log.SafeParam("proxyScheme", proxyURL.Scheme), svc1log.Stacktrace(err))
		return direct.DialContext
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, address string) (net.Conn, error) {
		return d.Dial(network, address)
	}
}
