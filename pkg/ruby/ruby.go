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

// Package ruby contains Ruby buildpack library code.
package ruby

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/rubystack/buildpacks/pkg/env"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

const defaultVersion = "3.3.*"

// RubyVersionKey is the environment variable name used to store the Ruby version installed.
const RubyVersionKey = "build_ruby_version"

// DetectVersion detects the requested Ruby version from the environment,
// .ruby-version, Gemfile.lock, or gems.locked, falling back to a default
// version. Conflicting sources are a user error.
func DetectVersion(ctx *rs.Context) (string, error) {
	versionFromEnv := os.Getenv(env.RuntimeVersion)
	// The two lock files have the same format for Ruby version.
	lockFiles := []string{"Gemfile.lock", "gems.locked"}

	versionFromRubyVersion, err := getVersionFromRubyVersion(ctx)
	if err != nil {
		return "", err
	}
	if versionFromEnv != "" && versionFromRubyVersion != "" && versionFromRubyVersion != versionFromEnv {
		return "", rs.UserErrorf(
			"There is a conflict between Ruby versions specified in .ruby-version file and the %s environment variable. "+
				"Please resolve the conflict by choosing only one way to specify the ruby version.",
			env.RuntimeVersion)
	}

	for _, lockFileName := range lockFiles {
		path := filepath.Join(ctx.ApplicationRoot(), lockFileName)
		pathExists, err := ctx.FileExists(path)
		if err != nil {
			return "", err
		}
		if pathExists {
			lockedVersion, err := ParseRubyVersion(path)
			if err != nil {
				return "", rs.UserErrorf("Error %q in: %s", err, lockFileName)
			}

			// Lockfile doesn't contain a ruby version, so we can move on.
			if lockedVersion == "" {
				break
			}

			// Bundler doesn't allow us to override a version of ruby if it's locked in the lock file.
			// The env will still be useful if a project doesn't lock ruby version or doesn't use bundler.
			if versionFromEnv != "" && lockedVersion != versionFromEnv {
				return "", rs.UserErrorf(
					"Ruby version %q in %s can't be overriden to %q using %s environment variable",
					lockedVersion, lockFileName, versionFromEnv, env.RuntimeVersion)
			}
			if versionFromRubyVersion != "" && lockedVersion != versionFromRubyVersion {
				return "", rs.UserErrorf(
					"There is a conflict between the Ruby version %q in %s and %q in .ruby-version file. "+
						"Please resolve the conflict by choosing only one way to specify the ruby version.",
					lockedVersion, lockFileName, versionFromRubyVersion)
			}
			return lockedVersion, err
		}
	}

	if versionFromEnv != "" {
		ctx.Logf("Using runtime version from environment variable %s: %s", env.RuntimeVersion, versionFromEnv)
		return versionFromEnv, nil
	}
	if versionFromRubyVersion != "" {
		ctx.Logf("Using runtime version from .ruby-version file: %s", versionFromRubyVersion)
		return versionFromRubyVersion, nil
	}

	return defaultVersion, nil
}

// SupportsBundler1 returns true if the installed Ruby version is compatible with Bundler 1.
// Bundler 1 breaks with Ruby 3.2. This function returns true for all versions older than 3.2.
func SupportsBundler1(ctx *rs.Context) (bool, error) {
	rubyVersion, err := semver.NewVersion(os.Getenv(RubyVersionKey))
	if err != nil {
		return false, err
	}
	ruby32Version, _ := semver.NewVersion("3.2.0")
	return rubyVersion.LessThan(ruby32Version), nil
}

// NeedsRailsAssetPrecompile detects if asset precompilation is required in a Ruby on Rails app.
// Apps that check in a compiled asset manifest are served as-is.
func NeedsRailsAssetPrecompile(ctx *rs.Context) (bool, error) {
	isRailsApp, err := ctx.FileExists("bin", "rails")
	if err != nil {
		return false, fmt.Errorf("finding bin/rails: %w", err)
	}
	if !isRailsApp {
		return false, nil
	}

	assetsExists, err := ctx.FileExists("app", "assets")
	if err != nil {
		return false, err
	}
	if !assetsExists {
		return false, nil
	}

	manifestExists, err := ctx.FileExists("public", "assets", "manifest.yml")
	if err != nil {
		return false, err
	}
	if manifestExists {
		return false, nil
	}

	matches, err := ctx.Glob("public/assets/manifest-*.json")
	if err != nil {
		return false, fmt.Errorf("finding manifests: %w", err)
	}
	if matches != nil {
		return false, nil
	}

	matches, err = ctx.Glob("public/assets/.sprockets-manifest-*.json")
	if err != nil {
		return false, fmt.Errorf("finding sprockets manifests: %w", err)
	}
	if matches != nil {
		return false, nil
	}

	return true, nil
}

// getVersionFromRubyVersion reads the version pinned in a .ruby-version file.
func getVersionFromRubyVersion(ctx *rs.Context) (string, error) {
	path := filepath.Join(ctx.ApplicationRoot(), ".ruby-version")
	pathExists, err := ctx.FileExists(path)
	if err != nil {
		return "", err
	}
	if !pathExists {
		return "", nil
	}
	version, err := os.ReadFile(path)
	if err != nil {
		return "", rs.UserErrorf("Error %q in: %s", err, ".ruby-version")
	}
	return strings.TrimSpace(string(version)), nil
}
