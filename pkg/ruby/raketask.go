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
	"fmt"
	"strings"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

// RakeTasks is the lowercased output of `rake -P`, used to answer
// which tasks an application defines.
type RakeTasks struct {
	output string
}

// RakeDetect loads the application's rake task table by running
// `bundle exec rake -P --trace` in the application directory.
func RakeDetect(ctx *rs.Context) (*RakeTasks, error) {
	result, err := ctx.Exec([]string{"bundle", "exec", "rake", "-P", "--trace"},
		rs.WithWorkDir(ctx.ApplicationRoot()), rs.WithUserAttribution)
	if err != nil {
		return nil, fmt.Errorf("detecting rake tasks: %w", err)
	}
	return NewRakeTasks(result.Stdout), nil
}

// NewRakeTasks wraps raw `rake -P` output for task lookups.
func NewRakeTasks(output string) *RakeTasks {
	return &RakeTasks{output: strings.ToLower(output)}
}

// HasTask reports whether the task table defines the given task, e.g.
// "assets:precompile".
func (r *RakeTasks) HasTask(task string) bool {
	// Task lines are printed as `rake assets:precompile`, prerequisites are
	// indented further. Matching on the leading space avoids substring hits
	// inside other task names.
	return strings.Contains(r.output, fmt.Sprintf(" %s", strings.ToLower(task)))
}

// AssetCases enumerates what the rails buildpack should do about assets.
type AssetCases int

const (
	// AssetCasesNone skips asset compilation entirely.
	AssetCasesNone AssetCases = iota
	// AssetCasesPrecompileOnly runs assets:precompile.
	AssetCasesPrecompileOnly
	// AssetCasesPrecompileAndClean runs assets:precompile then assets:clean.
	AssetCasesPrecompileAndClean
)

// DetectAssetCase decides the asset compilation strategy from the task table.
func (r *RakeTasks) DetectAssetCase() AssetCases {
	if !r.HasTask("assets:precompile") {
		return AssetCasesNone
	}
	if r.HasTask("assets:clean") {
		return AssetCasesPrecompileAndClean
	}
	return AssetCasesPrecompileOnly
}
