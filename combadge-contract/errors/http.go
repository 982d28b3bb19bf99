// Copyright (c) 2018 Palantir Technologies. All rights reserved.
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
	"encoding/json"
	"net/http"

	"github.com/palantir/go-combadge/combadge-contract/codecs"
)

// WriteErrorResponse writes e to the response writer in its wire representation.
// It is used by fakes and test servers that stand in for remote services.
func WriteErrorResponse(w http.ResponseWriter, e Error) {
	var marshaledError []byte
	var err error
	if marshaler, ok := e.(json.Marshaler); ok {
		marshaledError, err = marshaler.MarshalJSON()
	}
	if marshaledError == nil || err != nil {
		params, _ := codecs.JSON.Marshal(e.UnsafeParams())
		marshaledError, _ = codecs.JSON.Marshal(SerializableError{
			ErrorCode:       e.Code(),
			ErrorName:       e.Name(),
			ErrorInstanceID: e.InstanceID(),
			Parameters:      params,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code().StatusCode())
	_, _ = w.Write(marshaledError)
}
