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
	"fmt"
	"sync"

	werror "github.com/palantir/witchcraft-go-error"
)

// Registry maps names to error models so that declarations can refer to models by name.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

func NewRegistry() *Registry {
	return &Registry{models: map[string]Model{}}
}

// RegisterModel adds m under its name. Registering a name twice is an error.
func (r *Registry) RegisterModel(m Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.models[m.Name()]; ok {
		return werror.Error("error model name already registered",
			werror.SafeParam("errorModel", m.Name()),
			werror.SafeParam("existingType", typeString(existing)))
	}
	r.models[m.Name()] = m
	return nil
}

// Model returns the model registered under name.
func (r *Registry) Model(name string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns the models registered under names, in order.
// It fails if any name is unknown.
func (r *Registry) Models(names ...string) ([]Model, error) {
	out := make([]Model, 0, len(names))
	for _, name := range names {
		m, ok := r.Model(name)
		if !ok {
			return nil, werror.Error("unknown error model", werror.SafeParam("errorModel", name))
		}
		out = append(out, m)
	}
	return out, nil
}

// CopyFrom registers every model of other in r.
func (r *Registry) CopyFrom(other *Registry) error {
	other.mu.RLock()
	models := make([]Model, 0, len(other.models))
	for _, m := range other.models {
		models = append(models, m)
	}
	other.mu.RUnlock()
	for _, m := range models {
		if err := r.RegisterModel(m); err != nil {
			return err
		}
	}
	return nil
}

// MustRegisterModel registers m in registry and panics on failure.
func MustRegisterModel(registry *Registry, m Model) {
	if err := registry.RegisterModel(m); err != nil {
		panic(err)
	}
}

var globalRegistry = NewRegistry()

// GlobalRegistry returns the registry used by RegisterModel and LookupModels.
func GlobalRegistry() *Registry {
	return globalRegistry
}

// RegisterModel registers m in the global registry and panics if the name is taken.
func RegisterModel(m Model) {
	MustRegisterModel(globalRegistry, m)
}

// LookupModels returns models of the global registry by name.
func LookupModels(names ...string) ([]Model, error) {
	return globalRegistry.Models(names...)
}

func typeString(m Model) string {
	return fmt.Sprintf("%T", m)
}
