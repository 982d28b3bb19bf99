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

package binder

import (
	"github.com/go-playground/validator/v10"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
	"golang.org/x/sync/semaphore"
)

// Option configures Bind, BindMethod and BindAsyncMethod.
type Option interface {
	apply(*bindConfig) error
}

type optionFunc func(*bindConfig) error

func (f optionFunc) apply(c *bindConfig) error {
	return f(c)
}

type bindConfig struct {
	errorModels []errors.Model
	registry    *errors.Registry
	middlewares []CallMiddleware
	limiter     *semaphore.Weighted
	validate    *validator.Validate
}

func newBindConfig(opts []Option) (*bindConfig, error) {
	cfg := &bindConfig{
		registry: errors.GlobalRegistry(),
		validate: errors.DefaultValidator(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithErrorModels adds error models to every bound method. They are matched after the models
// the method declares.
func WithErrorModels(models ...errors.Model) Option {
	return optionFunc(func(c *bindConfig) error {
		for _, m := range models {
			if m == nil {
				return werror.Error("error model can not be nil")
			}
		}
		c.errorModels = append(c.errorModels, models...)
		return nil
	})
}

// WithErrorRegistry resolves the error model names of method tags in registry instead of the
// global registry.
func WithErrorRegistry(registry *errors.Registry) Option {
	return optionFunc(func(c *bindConfig) error {
		if registry == nil {
			return werror.Error("error registry can not be nil")
		}
		c.registry = registry
		return nil
	})
}

// WithMiddleware wraps every call. The first middleware is the outermost; all of them run
// outside the timeout of the method.
func WithMiddleware(middlewares ...CallMiddleware) Option {
	return optionFunc(func(c *bindConfig) error {
		c.middlewares = append(c.middlewares, middlewares...)
		return nil
	})
}

// WithMaxConcurrency bounds the number of asynchronous calls in flight across all methods bound
// together. Calls beyond the limit wait for a slot or for their context to be done.
func WithMaxConcurrency(n int) Option {
	return optionFunc(func(c *bindConfig) error {
		if n <= 0 {
			return werror.Error("max concurrency must be positive", werror.SafeParam("maxConcurrency", n))
		}
		c.limiter = semaphore.NewWeighted(int64(n))
		return nil
	})
}

// WithValidator sets the validator used for response models.
func WithValidator(validate *validator.Validate) Option {
	return optionFunc(func(c *bindConfig) error {
		if validate == nil {
			return werror.Error("validator can not be nil")
		}
		c.validate = validate
		return nil
	})
}
