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
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

// Match against ruby string example: ruby 2.6.7p450
var rubyVersionRe = regexp.MustCompile(`^\s*ruby\s+([^p^\s]+)(p\d+)?\s*$`)

// ParseRubyVersion extracts the version number from Gemfile.lock or gems.locked, returns an error in
// case the version string is malformed.
func ParseRubyVersion(path string) (string, error) {
	version, err := readLineAfter(path, "RUBY VERSION")
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", nil
	}

	matches := rubyVersionRe.FindStringSubmatch(version)
	if len(matches) > 1 {
		return matches[1], nil
	}

	return "", rs.UserErrorf("parsing ruby version %q", version)
}

// ParseBundlerVersion extracts the version of bundler from Gemfile.lock or gems.locked,
// returns an error in case the version string is malformed.
func ParseBundlerVersion(path string) (string, error) {
	version, err := readLineAfter(path, "BUNDLED WITH")
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", nil
	}

	semver, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return "", rs.UserErrorf("parsing bundler version %q: %v", version, err)
	}

	return fmt.Sprintf("%d.%d.%d", semver.Major(), semver.Minor(), semver.Patch()), nil
}

// readLineAfter returns the line following the first line equal to marker,
// or the empty string when the marker is not present. A missing file is not
// an error, lockfiles are optional.
func readLineAfter(path, marker string) (string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if found {
			return line, nil
		}
		if strings.TrimSpace(line) == marker {
			found = true
		}
	}
	return "", scanner.Err()
}
