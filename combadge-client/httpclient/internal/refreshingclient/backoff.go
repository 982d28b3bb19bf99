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
	"time"

	"github.com/palantir/pkg/refreshable"
	"github.com/palantir/pkg/retry"
)

// Backoff bounds the sleep between the attempts of one call. Zero values leave the retry
// package defaults in place.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// BackoffSource provides the Backoff applied to calls started from now on.
type BackoffSource struct {
	refreshable.Refreshable // contains Backoff
}

func StaticBackoffSource(b Backoff) BackoffSource {
	return BackoffSource{Refreshable: refreshable.NewDefaultRefreshable(b)}
}

func (s BackoffSource) Backoff() Backoff {
	return s.Current().(Backoff)
}

// Derive returns a source following s with edit applied to every value.
func (s BackoffSource) Derive(edit func(b *Backoff)) BackoffSource {
	return BackoffSource{Refreshable: s.Map(func(i interface{}) interface{} {
		b := i.(Backoff)
		edit(&b)
		return b
	})}
}

// Start returns a retrier for one call; later changes to the source do not affect it.
func (s BackoffSource) Start(ctx context.Context) retry.Retrier {
	b := s.Backoff()
	var opts []retry.Option
	if b.Initial > 0 {
		opts = append(opts, retry.WithInitialBackoff(b.Initial))
	}
	if b.Max > 0 {
		opts = append(opts, retry.WithMaxBackoff(b.Max))
	}
	return retry.Start(ctx, opts...)
}
