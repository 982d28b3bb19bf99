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

package transport_test

import (
	"testing"

	"github.com/palantir/go-combadge/combadge-contract/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Path(t *testing.T) {
	for _, tc := range []struct {
		name      string
		template  string
		params    map[string]string
		expected  string
		expectErr string
	}{
		{
			name:     "no placeholders",
			template: "/anything",
			expected: "/anything",
		},
		{
			name:     "placeholders are escaped",
			template: "/users/{id}/files/{file}",
			params:   map[string]string{"id": "42", "file": "a b/c"},
			expected: "/users/42/files/a%20b%2Fc",
		},
		{
			name:      "missing value",
			template:  "/users/{id}",
			expectErr: "path parameter has no value",
		},
		{
			name:      "unterminated placeholder",
			template:  "/users/{id",
			params:    map[string]string{"id": "42"},
			expectErr: "path template contains unterminated placeholder",
		},
		{
			name:      "empty placeholder",
			template:  "/users/{}",
			expectErr: "path template contains invalid placeholder",
		},
		{
			name:      "stray closing brace",
			template:  "/users/}",
			expectErr: "path template contains unbalanced '}'",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := transport.NewRequest("test")
			req.PathTemplate = tc.template
			for k, v := range tc.params {
				req.SetPathParam(k, v)
			}
			path, err := req.Path()
			if tc.expectErr != "" {
				require.EqualError(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, path)
		})
	}
}

func TestRequest_Payload(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok, err := transport.NewRequest("test").Payload()
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("whole body", func(t *testing.T) {
		req := transport.NewRequest("test")
		req.SetBody(map[string]int{"foo": 42})
		payload, ok, err := req.Payload()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, map[string]int{"foo": 42}, payload)
	})
	t.Run("nil body is still a body", func(t *testing.T) {
		req := transport.NewRequest("test")
		req.SetBody(nil)
		_, ok, err := req.Payload()
		require.NoError(t, err)
		assert.True(t, ok)
	})
	t.Run("body fields", func(t *testing.T) {
		req := transport.NewRequest("test")
		req.SetBodyField("foo", 42)
		req.SetBodyField("bar", "baz")
		payload, ok, err := req.Payload()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, map[string]interface{}{"foo": 42, "bar": "baz"}, payload)
		assert.Equal(t, []string{"foo", "bar"}, req.BodyFieldNames())
	})
	t.Run("body field order", func(t *testing.T) {
		req := transport.NewRequest("test")
		req.SetBodyField("dividend", 10)
		req.SetBodyField("divisor", 2)
		req.SetBodyField("dividend", 12)
		req.BodyFields["base"] = 10
		req.BodyFields["alpha"] = 1
		assert.Equal(t, []string{"dividend", "divisor", "alpha", "base"}, req.BodyFieldNames())
		assert.Equal(t, 12, req.BodyFields["dividend"])
	})
	t.Run("conflict", func(t *testing.T) {
		req := transport.NewRequest("test")
		req.SetBody("whole")
		req.SetBodyField("foo", 42)
		_, _, err := req.Payload()
		require.EqualError(t, err, "request sets both a whole body and body fields")
	})
}
