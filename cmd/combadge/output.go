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

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/palantir/go-combadge/combadge-contract/transport"
	werror "github.com/palantir/witchcraft-go-error"
)

func printStatus(w io.Writer, resp *transport.Response) {
	c := color.New(color.FgGreen, color.Bold)
	switch {
	case resp.StatusCode >= 400:
		c = color.New(color.FgRed, color.Bold)
	case resp.StatusCode >= 300:
		c = color.New(color.FgYellow, color.Bold)
	}
	_, _ = c.Fprintf(w, "%d %s\n", resp.StatusCode, resp.Reason())
}

func printBody(w io.Writer, resp *transport.Response) error {
	if resp.IsEmpty() {
		return nil
	}
	body := resp.Text()
	if body[len(body)-1] != '\n' {
		body += "\n"
	}
	_, err := io.WriteString(w, body)
	return werror.Wrap(err, "failed to write response body")
}

// printError writes err and its safe parameters.
func printError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	_, _ = fmt.Fprintln(w, err.Error())
	safe, _ := werror.ParamsFromError(err)
	keys := make([]string, 0, len(safe))
	for key := range safe {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		_, _ = color.New(color.Faint).Fprintf(w, "  %s: %v\n", key, safe[key])
	}
}
