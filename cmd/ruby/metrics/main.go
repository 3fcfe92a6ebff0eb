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

// Implements ruby/metrics buildpack.
// The metrics buildpack installs the agentmon language metrics agent and the
// launch plumbing that starts it alongside the web process.
package main

import (
	"fmt"

	"github.com/rubystack/buildpacks/pkg/env"
	"github.com/rubystack/buildpacks/pkg/metrics"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

const layerName = "agentmon"

func main() {
	rs.Main(detectFn, buildFn)
}

func detectFn(ctx *rs.Context) (rs.DetectResult, error) {
	exists, err := ctx.FileExists("Gemfile.lock")
	if err != nil {
		return nil, err
	}
	if !exists {
		return rs.OptOutFileNotFound("Gemfile.lock"), nil
	}
	return rs.OptIn("metrics agent always installed for bundled apps"), nil
}

func buildFn(ctx *rs.Context) error {
	l, err := ctx.Layer(layerName, rs.CacheLayer, rs.LaunchLayer)
	if err != nil {
		return fmt.Errorf("creating %v layer: %w", layerName, err)
	}

	agentmonPath, err := metrics.InstallAgentmon(ctx, l)
	if err != nil {
		return fmt.Errorf("installing agentmon: %w", err)
	}
	daemonPath, loopPath, err := metrics.CopyLaunchBinaries(ctx, l)
	if err != nil {
		return fmt.Errorf("installing launch binaries: %w", err)
	}
	if err := metrics.WriteExecD(ctx, l, daemonPath, loopPath, agentmonPath); err != nil {
		return fmt.Errorf("writing exec.d entry: %w", err)
	}

	ctx.Logf("Metrics are reported only when %s is set at launch.", env.MetricsURL)
	return ctx.SaveLayer(l)
}
