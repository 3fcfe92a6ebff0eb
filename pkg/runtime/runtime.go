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

// Package runtime installs the Ruby distribution into a cached layer.
package runtime

import (
	"fmt"

	"github.com/buildpacks/libcnb/v2"

	"github.com/rubystack/buildpacks/pkg/env"
	"github.com/rubystack/buildpacks/pkg/fetch"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
	"github.com/rubystack/buildpacks/pkg/version"
)

var (
	// tarballURL holds prebuilt Ruby distributions, one prefix per stack.
	tarballURL = "https://ruby-runtimes.s3.us-east-1.amazonaws.com/%s/ruby-%s.tar.gz"
	// versionsURL lists the versions available for a stack, newest first.
	versionsURL = "https://ruby-runtimes.s3.us-east-1.amazonaws.com/%s/versions.json"
)

const (
	versionKey = "version"
	stackKey   = "stack"
)

// IsCached returns true if the requested version of Ruby is installed in the given layer.
// The stack is part of the key because distributions are built per stack.
func IsCached(ctx *rs.Context, layer *libcnb.Layer, version string) bool {
	metaVersion := ctx.GetMetadata(layer, versionKey)
	metaStack := ctx.GetMetadata(layer, stackKey)
	return metaVersion == version && metaStack == ctx.StackID()
}

// ResolveVersion returns the concrete Ruby version matching the constraint.
// Exact versions skip the manifest lookup so offline builds with a pinned
// version never touch the network.
func ResolveVersion(ctx *rs.Context, constraint string) (string, error) {
	if version.IsExactSemver(constraint) {
		return constraint, nil
	}

	var versions []string
	url := fmt.Sprintf(versionsURL, ctx.StackID())
	if err := fetch.JSON(url, &versions); err != nil {
		return "", fmt.Errorf("fetching available Ruby versions: %w", err)
	}
	resolved, err := version.ResolveVersion(constraint, versions)
	if err != nil {
		return "", rs.UserErrorf(
			"invalid Ruby version specified: %v. You can specify the version with %s.", err, env.RuntimeVersion)
	}
	return resolved, nil
}

// InstallTarballIfNotCached installs the Ruby distribution into the layer
// unless a previous build already installed the same version for the same
// stack. It returns true on a cache hit.
func InstallTarballIfNotCached(ctx *rs.Context, versionConstraint string, layer *libcnb.Layer) (bool, error) {
	v, err := ResolveVersion(ctx, versionConstraint)
	if err != nil {
		return false, err
	}

	if layer.Cache {
		if IsCached(ctx, layer, v) {
			ctx.CacheHit(layer.Name)
			ctx.Logf("Ruby v%s cache hit, skipping installation.", v)
			return true, nil
		}
		ctx.CacheMiss(layer.Name)
	}

	if err := ctx.ClearLayer(layer); err != nil {
		return false, rs.InternalErrorf("clearing layer %q: %v", layer.Name, err)
	}
	ctx.Logf("Installing Ruby v%s.", v)

	url := fmt.Sprintf(tarballURL, ctx.StackID(), v)
	if err := fetch.Tarball(url, layer.Path, 0); err != nil {
		ctx.Warnf("Failed to download Ruby v%s for stack %s. You can specify the version by setting the %s environment variable.", v, ctx.StackID(), env.RuntimeVersion)
		return false, err
	}

	ctx.SetMetadata(layer, stackKey, ctx.StackID())
	ctx.SetMetadata(layer, versionKey, v)
	return false, ctx.SaveLayer(layer)
}
