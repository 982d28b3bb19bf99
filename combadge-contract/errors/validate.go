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
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	werror "github.com/palantir/witchcraft-go-error"
)

var (
	defaultValidator     *validator.Validate
	defaultValidatorOnce sync.Once
)

// DefaultValidator returns the shared validator used for payload models.
func DefaultValidator() *validator.Validate {
	defaultValidatorOnce.Do(func() {
		defaultValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return defaultValidator
}

// ValidateValue validates v with the provided validator if v is a struct or a pointer to one.
// Values of other kinds are accepted as is.
func ValidateValue(validate *validator.Validate, v interface{}) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(rv.Interface()); err != nil {
		return werror.Wrap(err, "payload failed validation", werror.SafeParam("type", rv.Type().String()))
	}
	return nil
}
