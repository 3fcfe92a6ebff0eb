// Copyright 2023 RubyStack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ruby

import (
	"regexp"
	"strings"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

// Matches lines of `bundle list` output, e.g. `  * rake (13.0.6)`.
var gemListRe = regexp.MustCompile(`  \* (\S+) \(([a-zA-Z0-9\.]+)\)`)

// GemList returns the bundled gems and their versions by running
// `bundle list` in the application directory.
func GemList(ctx *rs.Context) (map[string]string, error) {
	result, err := ctx.Exec([]string{"bundle", "list"},
		rs.WithWorkDir(ctx.ApplicationRoot()), rs.WithUserAttribution)
	if err != nil {
		return nil, err
	}
	return ParseGemList(result.Stdout), nil
}

// ParseGemList extracts gem name to version pairs from `bundle list` output.
// Unparseable lines are skipped.
func ParseGemList(output string) map[string]string {
	gems := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		matches := gemListRe.FindStringSubmatch(line)
		if len(matches) == 3 {
			gems[matches[1]] = matches[2]
		}
	}
	return gems
}

// HasGem reports whether the given gem is present in the parsed gem list.
func HasGem(gems map[string]string, name string) bool {
	_, ok := gems[name]
	return ok
}
