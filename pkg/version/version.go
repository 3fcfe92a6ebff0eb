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

// Package version provides functions for resolving semantic versions.
package version

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/semver"
)

var exactSemverRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// IsExactSemver reports whether the given string is an exact x.y.z version
// rather than a constraint.
func IsExactSemver(v string) bool {
	return exactSemverRe.MatchString(v)
}

// ResolveVersion returns the largest version from versions that satisfies the
// given constraint. An empty constraint matches any version.
func ResolveVersion(constraint string, versions []string) (string, error) {
	if constraint == "" {
		constraint = "*"
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return "", fmt.Errorf("parsing version constraint %q: %w", constraint, err)
	}

	var candidates []*semver.Version
	for _, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			return "", fmt.Errorf("parsing version %q: %w", v, err)
		}
		candidates = append(candidates, sv)
	}
	sort.Sort(sort.Reverse(semver.Collection(candidates)))

	for _, sv := range candidates {
		if c.Check(sv) {
			return sv.Original(), nil
		}
	}
	return "", fmt.Errorf("no version found matching %q", constraint)
}
