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

// Implements ruby/runtime buildpack.
// The runtime buildpack installs the Ruby runtime.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rubystack/buildpacks/pkg/env"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
	"github.com/rubystack/buildpacks/pkg/ruby"
	"github.com/rubystack/buildpacks/pkg/runtime"
)

const layerName = "ruby"

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
	matches, err := ctx.Glob("*.rb")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return rs.OptOut("no .rb files found"), nil
	}
	return rs.OptIn("found .rb files"), nil
}

func buildFn(ctx *rs.Context) error {
	version, err := ruby.DetectVersion(ctx)
	if err != nil {
		return fmt.Errorf("determining runtime version: %w", err)
	}

	rl, err := ctx.Layer(layerName, rs.BuildLayer, rs.CacheLayer, rs.LaunchLayer)
	if err != nil {
		return fmt.Errorf("creating %v layer: %w", layerName, err)
	}
	if _, err := runtime.InstallTarballIfNotCached(ctx, version, rl); err != nil {
		return err
	}

	// Later buildpacks read the installed version from the build environment.
	rl.BuildEnvironment.Default(ruby.RubyVersionKey, version)
	if err := ctx.SaveLayer(rl); err != nil {
		return err
	}

	return setEntrypoint(ctx)
}

// setEntrypoint declares the web process, honoring an explicit override.
func setEntrypoint(ctx *rs.Context) error {
	entrypoint := os.Getenv(env.Entrypoint)
	if entrypoint == "" {
		var err error
		entrypoint, err = ruby.InferEntrypoint(ctx, ctx.ApplicationRoot())
		if err != nil {
			return err
		}
	}
	ctx.AddWebProcess([]string{"/bin/bash", "-c", strings.TrimSpace(entrypoint)})
	return nil
}
