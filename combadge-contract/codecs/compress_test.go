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


package codecs_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
)

func TestCompressedCodecs(t *testing.T) {
	input := strings.Repeat("forty two ", 20)
	for _, tc := range []struct {
		name  string
		codec codecs.Codec
	}{
		{name: "gzip", codec: codecs.GZIP(codecs.Plain)},
		{name: "zlib", codec: codecs.ZLIB(codecs.Plain)},
		{name: "snappy", codec: codecs.SNAPPY(codecs.Plain)},
		{name: "snappy framed", codec: codecs.SnappyFramed(codecs.Plain)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, codecs.Plain.ContentType(), tc.codec.ContentType())

			var buf bytes.Buffer
			require.NoError(t, tc.codec.Encode(&buf, input))
			assert.NotEqual(t, input, buf.String())

			var decoded string
			require.NoError(t, tc.codec.Decode(&buf, &decoded))
			assert.Equal(t, input, decoded)

			marshaled, err := tc.codec.Marshal(input)
			require.NoError(t, err)
			var unmarshaled string
			require.NoError(t, tc.codec.Unmarshal(marshaled, &unmarshaled))
			assert.Equal(t, input, unmarshaled)
		})
	}
}

func TestCompressedCodecs_WrapJSON(t *testing.T) {
	codec := codecs.GZIP(codecs.JSON)
	out, err := codec.Marshal(map[string]int{"value": 42})
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, codec.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]int{"value": 42}, decoded)

	var s string
	assert.Error(t, codec.Unmarshal([]byte("not compressed"), &s))
}
