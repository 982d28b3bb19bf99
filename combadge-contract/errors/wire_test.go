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


package errors_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
	"github.com/palantir/go-combadge/combadge-contract/errors"
)

func TestSerializableError_WireShape(t *testing.T) {
	remote := errors.NewError(errors.NotFound, "Users:UserNotFound", map[string]interface{}{"userId": "7"})
	out, err := codecs.JSON.Marshal(remote)
	require.NoError(t, err)

	var wire errors.SerializableError
	require.NoError(t, codecs.JSON.Unmarshal(out, &wire))
	assert.Equal(t, errors.NotFound, wire.ErrorCode)
	assert.Equal(t, "Users:UserNotFound", wire.ErrorName)
	assert.Equal(t, remote.InstanceID(), wire.ErrorInstanceID)
	assert.JSONEq(t, `{"userId":"7"}`, string(wire.Parameters))

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.Equal(t, "NOT_FOUND", generic["errorCode"])
}

func TestWriteErrorResponse(t *testing.T) {
	remote := errors.NewError(errors.Conflict, "Users:Duplicate", map[string]interface{}{"count": 2})
	recorder := httptest.NewRecorder()
	errors.WriteErrorResponse(recorder, remote)
	resp := recorder.Result()

	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded, err := errors.UnmarshalError(body)
	require.NoError(t, err)
	assert.Equal(t, errors.Conflict, decoded.Code())
	assert.Equal(t, "Users:Duplicate", decoded.Name())
	assert.Equal(t, remote.InstanceID(), decoded.InstanceID())
	assert.Equal(t, json.Number("2"), decoded.UnsafeParams()["count"])
	assert.Equal(t, "Users:Duplicate", decoded.SafeParams()["errorName"])
	assert.EqualError(t, decoded, remote.Error())
}
