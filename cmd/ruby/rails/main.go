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

// Implements ruby/rails buildpack.
// The rails buildpack precompiles assets using Rails, keeping asset caches
// warm between builds.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/rubystack/buildpacks/pkg/appcache"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
	"github.com/rubystack/buildpacks/pkg/ruby"
)

const assetCacheLimit = 100

func main() {
	rs.Main(detectFn, buildFn)
}

func detectFn(ctx *rs.Context) (rs.DetectResult, error) {
	railsExists, err := ctx.FileExists("bin", "rails")
	if err != nil {
		return nil, err
	}
	if !railsExists {
		return rs.OptOutFileNotFound("bin/rails"), nil
	}
	needsPrecompile, err := ruby.NeedsRailsAssetPrecompile(ctx)
	if err != nil {
		return nil, err
	}
	if !needsPrecompile {
		return rs.OptOut("Rails assets do not need precompilation"), nil
	}
	return rs.OptIn("found Rails assets to precompile"), nil
}

func buildFn(ctx *rs.Context) error {
	tasks, err := ruby.RakeDetect(ctx)
	if err != nil {
		return err
	}
	assetCase := tasks.DetectAssetCase()
	if assetCase == ruby.AssetCasesNone {
		ctx.Logf("Rake task assets:precompile not found, skipping asset compilation.")
		return nil
	}

	caches, err := appcache.NewCollection(ctx, assetCacheConfigs(ctx))
	if err != nil {
		return fmt.Errorf("configuring asset caches: %w", err)
	}
	if err := caches.RestoreAll(); err != nil {
		return fmt.Errorf("restoring asset caches: %w", err)
	}

	if err := precompile(ctx, assetCase); err != nil {
		return err
	}
	logCompiledAssets(ctx)

	if err := caches.StoreAll(); err != nil {
		return fmt.Errorf("storing asset caches: %w", err)
	}
	return nil
}

// assetCacheConfigs lists the directories sprockets reads and writes during
// precompilation. Compiled assets are served at runtime, the fragment cache
// only speeds up the next build.
func assetCacheConfigs(ctx *rs.Context) []appcache.Config {
	return []appcache.Config{
		{
			Path:     filepath.Join(ctx.ApplicationRoot(), "public", "assets"),
			Limit:    appcache.MiB(assetCacheLimit),
			KeepPath: appcache.KeepPathRuntime,
		},
		{
			Path:     filepath.Join(ctx.ApplicationRoot(), "tmp", "cache", "assets"),
			Limit:    appcache.MiB(assetCacheLimit),
			KeepPath: appcache.KeepPathBuildOnly,
		},
	}
}

func precompile(ctx *rs.Context, assetCase ruby.AssetCases) error {
	cmd := []string{"bundle", "exec", "rake", "assets:precompile"}
	if assetCase == ruby.AssetCasesPrecompileAndClean {
		cmd = append(cmd, "assets:clean")
	}
	ctx.Logf("Running Rails asset precompilation")
	result, err := ctx.Exec(cmd,
		rs.WithWorkDir(ctx.ApplicationRoot()),
		rs.WithEnv("RAILS_ENV=production", "RAILS_LOG_TO_STDOUT=true", "MALLOC_ARENA_MAX=2", "LANG=C.utf8"),
		rs.WithUserAttribution)
	if err != nil {
		if result != nil {
			return rs.UserErrorf("asset precompilation failed: %s", result.Combined)
		}
		return rs.InternalErrorf("asset precompilation failed: %v", err)
	}
	return nil
}

// logCompiledAssets reports the manifest size when sprockets wrote one.
func logCompiledAssets(ctx *rs.Context) {
	manifest, err := ruby.ReadAssetManifest(filepath.Join(ctx.ApplicationRoot(), "public", "assets", "manifest.yml"))
	if err != nil {
		ctx.Debugf("Reading asset manifest: %v", err)
		return
	}
	if manifest != nil {
		ctx.Logf("Precompiled %d asset(s).", len(manifest.Assets))
	}
}
