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

// Command combadge calls methods of services declared in YAML against REST and SOAP backends.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/caarlos0/env/v11"
	"github.com/fatih/color"
)

func main() {
	os.Exit(run())
}

func run() int {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "invalid environment: %v\n", err)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand(cfg, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}
