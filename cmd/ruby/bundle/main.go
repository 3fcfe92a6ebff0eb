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

// Implements ruby/bundle buildpack.
// The bundle buildpack installs dependencies using bundler.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rubystack/buildpacks/pkg/buildererror"
	"github.com/rubystack/buildpacks/pkg/cache"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
	"github.com/rubystack/buildpacks/pkg/ruby"
	"github.com/rubystack/buildpacks/pkg/spinner"
)

const (
	layerName         = "gems"
	dependencyHashKey = "dependency_hash"
)

func main() {
	rs.Main(detectFn, buildFn)
}

func detectFn(ctx *rs.Context) (rs.DetectResult, error) {
	for _, f := range []string{"Gemfile", "gems.rb"} {
		exists, err := ctx.FileExists(f)
		if err != nil {
			return nil, err
		}
		if exists {
			return rs.OptInFileFound(f), nil
		}
	}
	return rs.OptOut("neither Gemfile nor gems.rb found"), nil
}

func buildFn(ctx *rs.Context) error {
	lockFile, err := lockFileName(ctx)
	if err != nil {
		return err
	}
	lockFilePath := filepath.Join(ctx.ApplicationRoot(), lockFile)

	if err := checkBundlerCompat(ctx, lockFilePath); err != nil {
		return err
	}

	deps, err := ctx.Layer(layerName, rs.BuildLayer, rs.CacheLayer, rs.LaunchLayer)
	if err != nil {
		return fmt.Errorf("creating %v layer: %w", layerName, err)
	}

	rubyVersion := os.Getenv(ruby.RubyVersionKey)
	hash, cached, err := cache.HashAndCheck(ctx, deps, dependencyHashKey,
		cache.WithStrings(rubyVersion), cache.WithFiles(lockFilePath))
	if err != nil {
		return fmt.Errorf("checking cache: %w", err)
	}

	gemsDir := filepath.Join(deps.Path, "gems")
	if cached {
		ctx.Logf("Dependencies cache hit, skipping installation.")
	} else {
		ctx.Logf("Installing application dependencies.")
		if err := ctx.ClearLayer(deps); err != nil {
			return fmt.Errorf("clearing %v layer: %w", layerName, err)
		}
		if err := bundleInstall(ctx, gemsDir); err != nil {
			return err
		}
		if err := cache.Add(ctx, deps, dependencyHashKey, hash); err != nil {
			return fmt.Errorf("updating cache metadata: %w", err)
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}
	deps.SharedEnvironment.Default("BUNDLE_PATH", gemsDir)
	deps.SharedEnvironment.Default("BUNDLE_WITHOUT", "development:test")
	deps.LaunchEnvironment.Default("RACK_ENV", "production")
	deps.LaunchEnvironment.Default("RAILS_ENV", "production")
	deps.LaunchEnvironment.Default("JRUBY_OPTS", "-Xcompile.invokedynamic=false")
	deps.LaunchEnvironment.Default("SECRET_KEY_BASE", secret)
	return ctx.SaveLayer(deps)
}

// lockFileName requires an up-to-date lockfile matching the gem manifest in use.
func lockFileName(ctx *rs.Context) (string, error) {
	hasGemfile, err := ctx.FileExists("Gemfile")
	if err != nil {
		return "", err
	}
	hasGemsRB, err := ctx.FileExists("gems.rb")
	if err != nil {
		return "", err
	}
	if hasGemfile {
		if hasGemsRB {
			ctx.Warnf("Gemfile and gems.rb both exist. Using Gemfile.")
		}
		hasLock, err := ctx.FileExists("Gemfile.lock")
		if err != nil {
			return "", err
		}
		if !hasLock {
			return "", buildererror.Errorf(buildererror.StatusFailedPrecondition,
				"Could not find Gemfile.lock file in your app. Please make sure your bundle is up to date before deploying.")
		}
		return "Gemfile.lock", nil
	}
	hasLock, err := ctx.FileExists("gems.locked")
	if err != nil {
		return "", err
	}
	if !hasLock {
		return "", buildererror.Errorf(buildererror.StatusFailedPrecondition,
			"Could not find gems.locked file in your app. Please make sure your bundle is up to date before deploying.")
	}
	return "gems.locked", nil
}

// checkBundlerCompat rejects Bundler 1 lockfiles on Ruby versions that
// dropped Bundler 1 support.
func checkBundlerCompat(ctx *rs.Context, lockFilePath string) error {
	bundlerVersion, err := ruby.ParseBundlerVersion(lockFilePath)
	if err != nil {
		return err
	}
	if bundlerVersion == "" || !strings.HasPrefix(bundlerVersion, "1.") {
		return nil
	}
	supported, err := ruby.SupportsBundler1(ctx)
	if err != nil {
		return fmt.Errorf("checking bundler compatibility: %w", err)
	}
	if !supported {
		return rs.UserErrorf(
			"Your bundle is locked with Bundler %s, which is not supported by the selected Ruby version. Please update your bundle with Bundler 2.",
			bundlerVersion)
	}
	return nil
}

// bundleInstall installs the bundle into the layer. Installs can take minutes,
// so a spinner keeps the build log alive.
func bundleInstall(ctx *rs.Context, gemsDir string) error {
	s := spinner.Start(os.Stderr)
	defer s.Stop()

	_, err := ctx.Exec([]string{"bundle", "install"},
		rs.WithWorkDir(ctx.ApplicationRoot()),
		rs.WithEnv(
			"BUNDLE_PATH="+gemsDir,
			"BUNDLE_DEPLOYMENT=true",
			"BUNDLE_FROZEN=true",
			"BUNDLE_WITHOUT=development:test",
		),
		rs.WithUserAttribution)
	return err
}

// generateSecret returns a hex string suitable as a default SECRET_KEY_BASE.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", rs.InternalErrorf("generating secret: %v", err)
	}
	return hex.EncodeToString(b), nil
}
