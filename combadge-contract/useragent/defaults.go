// Copyright (c) 2020 Palantir Technologies. All rights reserved.
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
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

const (
	modulePath     = "github.com/palantir/go-combadge"
	unknownVersion = "0.0.0"
)

// Default returns a Builder holding the golang and combadge-go products.
// Callers own the returned Builder; pushing onto it does not affect other callers.
func Default() *Builder {
	return &Builder{products: []Product{goProduct(), combadgeProduct()}}
}

func combadgeProduct() Product {
	return Product{name: "combadge-go", version: ModuleVersion()}
}

func goProduct() Product {
	return Product{
		name:     "golang",
		version:  strings.TrimPrefix(runtime.Version(), "go"),
		comments: []string{fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// ModuleVersion returns the version of this module as recorded in the binary's build info.
// Development builds and test binaries report 0.0.0.
func ModuleVersion() string {
	info := readBuildInfo()
	if info == nil {
		return unknownVersion
	}
	if info.Main.Path == modulePath {
		return cleanVersion(info.Main.Version)
	}
	for _, mod := range info.Deps {
		if mod.Path == modulePath {
			return cleanVersion(mod.Version)
		}
	}
	return unknownVersion
}

func cleanVersion(version string) string {
	version = strings.TrimPrefix(version, "v")
	if !versionPattern.MatchString(version) {
		return unknownVersion
	}
	return version
}

var (
	buildInfoOnce  sync.Once
	buildInfoCache *debug.BuildInfo
)

func readBuildInfo() *debug.BuildInfo {
	buildInfoOnce.Do(func() {
		if info, ok := debug.ReadBuildInfo(); ok {
			buildInfoCache = info
		}
	})
	return buildInfoCache
}
