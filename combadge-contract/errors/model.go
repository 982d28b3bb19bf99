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

package errors

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	"github.com/palantir/pkg/uuid"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
)

// Model is a declared error payload shape. A response whose payload matches the shape is
// turned into an error value by Match.
type Model interface {
	// Name identifies the model in declarations and logs.
	Name() string
	// Match returns the error for resp and true if resp matches the model.
	Match(ctx context.Context, resp *transport.Response) (error, bool)
}

// ModelOption configures a Model created by NewModel.
type ModelOption func(*modelConfig)

type modelConfig struct {
	name          string
	statusCodes   map[int]struct{}
	minStatus     int
	maxStatus     int
	validate      *validator.Validate
	decoder       codecs.Decoder
	unknownFields bool
}

// WithName overrides the model name, which defaults to the name of the payload type.
func WithName(name string) ModelOption {
	return func(c *modelConfig) {
		c.name = name
	}
}

// WithStatusCodes restricts matching to responses with one of the provided status codes.
func WithStatusCodes(codes ...int) ModelOption {
	return func(c *modelConfig) {
		if c.statusCodes == nil {
			c.statusCodes = map[int]struct{}{}
		}
		for _, code := range codes {
			c.statusCodes[code] = struct{}{}
		}
	}
}

// WithStatusRange restricts matching to responses with a status code in [minStatus, maxStatus].
func WithStatusRange(minStatus, maxStatus int) ModelOption {
	return func(c *modelConfig) {
		c.minStatus = minStatus
		c.maxStatus = maxStatus
	}
}

// WithValidator sets the validator used to check decoded payloads.
func WithValidator(v *validator.Validate) ModelOption {
	return func(c *modelConfig) {
		c.validate = v
	}
}

// WithDecoder forces a decoder regardless of the response Content-Type.
func WithDecoder(decoder codecs.Decoder) ModelOption {
	return func(c *modelConfig) {
		c.decoder = decoder
	}
}

// WithUnknownFields allows JSON payloads to carry fields the model does not declare.
func WithUnknownFields() ModelOption {
	return func(c *modelConfig) {
		c.unknownFields = true
	}
}

// NewModel returns a Model for payloads of type T. A response matches if its status code is
// accepted, its payload decodes into T and the decoded value passes validation
// (`validate` struct tags). JSON payloads with undeclared fields do not match unless
// WithUnknownFields is set. A match yields a *Fault[T].
func NewModel[T any](opts ...ModelOption) Model {
	cfg := modelConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = reflect.TypeOf((*T)(nil)).Elem().Name()
	}
	if cfg.validate == nil {
		cfg.validate = DefaultValidator()
	}
	return &model[T]{cfg: cfg}
}

type model[T any] struct {
	cfg modelConfig
}

func (m *model[T]) Name() string {
	return m.cfg.name
}

func (m *model[T]) Match(ctx context.Context, resp *transport.Response) (error, bool) {
	if !m.acceptsStatus(resp.StatusCode) || resp.IsEmpty() {
		return nil, false
	}
	var value T
	if err := m.decoderFor(resp).Unmarshal(resp.Body, &value); err != nil {
		svc1log.FromContext(ctx).Debug("Response payload does not decode as error model",
			svc1log.SafeParam("errorModel", m.cfg.name),
			svc1log.SafeParam("statusCode", resp.StatusCode),
			svc1log.Stacktrace(err))
		return nil, false
	}
	if err := ValidateValue(m.cfg.validate, value); err != nil {
		svc1log.FromContext(ctx).Debug("Response payload does not satisfy error model",
			svc1log.SafeParam("errorModel", m.cfg.name),
			svc1log.SafeParam("statusCode", resp.StatusCode),
			svc1log.Stacktrace(err))
		return nil, false
	}
	return &Fault[T]{
		Model:      value,
		ModelName:  m.cfg.name,
		Status:     resp.StatusCode,
		Reason:     resp.Reason(),
		InstanceID: uuid.NewUUID(),
	}, true
}

func (m *model[T]) acceptsStatus(code int) bool {
	if m.cfg.statusCodes != nil {
		if _, ok := m.cfg.statusCodes[code]; !ok {
			return false
		}
	}
	if m.cfg.maxStatus > 0 && (code < m.cfg.minStatus || code > m.cfg.maxStatus) {
		return false
	}
	return true
}

func (m *model[T]) decoderFor(resp *transport.Response) codecs.Decoder {
	decoder := m.cfg.decoder
	if decoder == nil {
		decoder = resp.Decoder()
	}
	if decoder == codecs.JSON && !m.cfg.unknownFields {
		return codecs.StrictJSON
	}
	return decoder
}
