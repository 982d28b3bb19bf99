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

package internal_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/palantir/go-combadge/combadge-client/httpclient/internal"
	"github.com/palantir/go-combadge/combadge-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeFromError(t *testing.T) {
	notFound := errors.NewError(errors.NotFound, "Default:NotFound", nil)
	for _, test := range []struct {
		Name     string
		Error    error
		Expected int
		Ok       bool
	}{
		{
			Name:     "nil error",
			Expected: 0,
			Ok:       false,
		},
		{
			Name:     "stdlib error",
			Error:    fmt.Errorf("an error"),
			Expected: 0,
			Ok:       false,
		},
		{
			Name:     "remote error",
			Error:    notFound,
			Expected: 404,
			Ok:       true,
		},
		{
			Name:     "wrapped remote error",
			Error:    werror.Wrap(notFound, "not found"),
			Expected: 404,
			Ok:       true,
		},
		{
			Name:     "remote error wins over param",
			Error:    werror.Wrap(notFound, "not found", werror.SafeParam("statusCode", 500)),
			Expected: 404,
			Ok:       true,
		},
		{
			Name:     "werror with param",
			Error:    werror.Error("not found", werror.SafeParam("statusCode", 500)),
			Expected: 500,
			Ok:       true,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			actual, ok := internal.StatusCodeFromError(test.Error)
			assert.Equal(t, test.Expected, actual)
			assert.Equal(t, test.Ok, ok)
		})
	}
}

func TestLocation(t *testing.T) {
	u, ok := internal.LocationFromError(werror.Error("moved", werror.SafeParam("location", "http://example-2.com")))
	require.True(t, ok)
	assert.Equal(t, "example-2.com", u.Host)
	_, ok = internal.LocationFromError(werror.Error("moved"))
	assert.False(t, ok)

	resp := &http.Response{StatusCode: http.StatusPermanentRedirect, Header: http.Header{"Location": {"http://example-3.com/base"}}}
	u, ok = internal.LocationFromResponse(resp)
	require.True(t, ok)
	assert.Equal(t, "http://example-3.com/base", u.String())
	resp.StatusCode = http.StatusOK
	_, ok = internal.LocationFromResponse(resp)
	assert.False(t, ok)
}
