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

// Package contract and its subpackages define the types shared by service bindings and the
// backends which execute them: requests and responses (transport), method and parameter
// markers (markers), payload codecs (codecs), error models (errors) and User-Agent
// construction (useragent).
//
// Nothing in these packages performs I/O. Backends live in combadge-client.
package contract
