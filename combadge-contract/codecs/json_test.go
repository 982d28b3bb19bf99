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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
)

type rawField struct {
	data []byte
}

func (f rawField) MarshalJSON() ([]byte, error) {
	return f.data, nil
}

func (f *rawField) UnmarshalJSON(data []byte) error {
	f.data = append([]byte(nil), data...)
	return nil
}

func TestJSON_RoundTrip(t *testing.T) {
	in := map[string]rawField{"payload": {data: []byte(`{"a":[1,2]}`)}}
	out, err := codecs.JSON.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"a":[1,2]}}`, string(out))

	var decoded map[string]rawField
	require.NoError(t, codecs.JSON.Decode(bytes.NewReader(out), &decoded))
	assert.Equal(t, `{"a":[1,2]}`, string(decoded["payload"].data))
}

func TestJSON_UseNumber(t *testing.T) {
	var v interface{}
	require.NoError(t, codecs.JSON.Unmarshal([]byte(`{"id":9007199254740993}`), &v))
	assert.Equal(t, json.Number("9007199254740993"), v.(map[string]interface{})["id"])
}

func TestJSON_EncodeDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, codecs.JSON.Encode(&buf, map[string]string{"q": "a<b&c"}))
	assert.Equal(t, "{\"q\":\"a<b&c\"}\n", buf.String())
}

func TestStrictJSON_RejectsUnknownFields(t *testing.T) {
	var out struct {
		Code string `json:"code"`
	}
	require.NoError(t, codecs.StrictJSON.Unmarshal([]byte(`{"code":"NOT_FOUND"}`), &out))
	assert.Equal(t, "NOT_FOUND", out.Code)

	assert.Error(t, codecs.StrictJSON.Unmarshal([]byte(`{"code":"NOT_FOUND","id":"7"}`), &out))
	assert.Error(t, codecs.StrictJSON.Decode(strings.NewReader(`{"other":true}`), &out))

	require.NoError(t, codecs.JSON.Unmarshal([]byte(`{"code":"CONFLICT","id":"7"}`), &out))
	assert.Equal(t, "CONFLICT", out.Code)
}
