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

package rsbuildpack

import (
	"path/filepath"

	"github.com/rubystack/buildpacks/pkg/buildererror"
)

// Glob is a pass through for filepath.Glob(...). Relative patterns are
// resolved against the application root. It returns any error with proper
// user / system attribution.
func (ctx *Context) Glob(pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(ctx.applicationRoot, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, buildererror.Errorf(buildererror.StatusInternal, "globbing %s: %v", pattern, err)
	}
	return matches, nil
}
