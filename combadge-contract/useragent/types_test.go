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


package useragent

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct_Validation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		product  string
		version  string
		comments []string
		want     string
		wantErr  string
	}{
		{name: "plain", product: "numbers", version: "1.2.3", want: "numbers/1.2.3"},
		{name: "rc with commits", product: "numbers", version: "1.2.3-rc1-4-gabc123", want: "numbers/1.2.3-rc1-4-gabc123"},
		{name: "comments", product: "numbers", version: "2", comments: []string{"soap", "1.1"}, want: "numbers/2 (soap, 1.1)"},
		{name: "empty name", version: "1.0.0", wantErr: "product name is not valid for User-Agent"},
		{name: "name starts with digit", product: "1numbers", version: "1.0.0", wantErr: "product name is not valid for User-Agent"},
		{name: "snapshot version", product: "numbers", version: "1.0.0-SNAPSHOT", wantErr: "product version is not valid for User-Agent"},
		{name: "comment delimiter", product: "numbers", version: "1.0.0", comments: []string{"a;b"}, wantErr: "product comment is not valid for User-Agent"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewProduct(tc.product, tc.version, tc.comments...)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.product, p.Name())
			assert.Equal(t, tc.want, p.String())
		})
	}
}

func TestBuilder_RendersLastPushedFirst(t *testing.T) {
	base := Default()
	svc, err := NewProduct("users", "3.1.0")
	require.NoError(t, err)

	clone := base.Clone().Push(svc)
	rendered := clone.String()
	assert.True(t, strings.HasPrefix(rendered, "users/3.1.0 combadge-go/"), rendered)
	assert.Contains(t, rendered, "golang/"+strings.TrimPrefix(runtime.Version(), "go"))
	assert.NotContains(t, base.String(), "users/")
}

func TestForService(t *testing.T) {
	assert.True(t, strings.HasPrefix(ForService("numbers", "1.0.0"), "numbers/1.0.0 combadge-go/"))
	assert.True(t, strings.HasPrefix(ForService("numbers", ""), "numbers/0.0.0 "))
	assert.Equal(t, Default().String(), ForService("bad name", "1.0.0"))
	assert.Equal(t, Default().String(), ForService("", ""))
}

func TestCleanVersion(t *testing.T) {
	assert.Equal(t, "1.4.0", cleanVersion("v1.4.0"))
	assert.Equal(t, unknownVersion, cleanVersion("(devel)"))
	assert.Equal(t, unknownVersion, cleanVersion("v0.0.0-20260101000000-abcdef123456"))
}
