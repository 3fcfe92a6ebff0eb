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

// Package metrics installs the agentmon metrics agent and its launch plumbing.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildpacks/libcnb/v2"

	"github.com/rubystack/buildpacks/pkg/fetch"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

var (
	// agentmonURL is the pinned agentmon release. Changing it invalidates the
	// cached layer through the download_url metadata key.
	agentmonURL    = "https://agentmon-releases.s3.us-east-1.amazonaws.com/agentmon-0.3.1-linux-amd64.tar.gz"
	agentmonSHA256 = "f9bf9f33c949e15ffed77046ca38f8dae9307b6a0181c6af29a25dec46eb2dac"
)

const downloadURLKey = "download_url"

// InstallAgentmon downloads the agentmon binary into the layer unless the
// same release is already cached. It returns the path to the binary.
func InstallAgentmon(ctx *rs.Context, layer *libcnb.Layer) (string, error) {
	binPath := filepath.Join(layer.Path, "agentmon")

	if layer.Cache && ctx.GetMetadata(layer, downloadURLKey) == agentmonURL {
		ctx.CacheHit(layer.Name)
		ctx.Logf("agentmon cache hit, skipping installation.")
		return binPath, nil
	}
	ctx.CacheMiss(layer.Name)

	if err := ctx.ClearLayer(layer); err != nil {
		return "", rs.InternalErrorf("clearing layer %q: %v", layer.Name, err)
	}
	ctx.Logf("Installing agentmon from %s.", agentmonURL)
	if err := fetch.CheckedTarball(agentmonURL, agentmonSHA256, layer.Path, 0); err != nil {
		return "", err
	}
	if err := makeExecutable(binPath); err != nil {
		return "", err
	}

	ctx.SetMetadata(layer, downloadURLKey, agentmonURL)
	return binPath, ctx.SaveLayer(layer)
}

// WriteExecD writes the exec.d entry that starts the metrics daemon at
// launch. The daemon detaches the loop binary and returns immediately so the
// web process is never delayed.
func WriteExecD(ctx *rs.Context, layer *libcnb.Layer, daemonPath, loopPath, agentmonPath string) error {
	execDDir := filepath.Join(layer.Path, "exec.d")
	if err := ctx.MkdirAll(execDDir, 0755); err != nil {
		return err
	}
	logPath := filepath.Join(layer.Path, "output.log")
	script := fmt.Sprintf("#!/usr/bin/env bash\n%s --log %s --loop-path %s --agentmon %s\n",
		daemonPath, logPath, loopPath, agentmonPath)

	scriptPath := filepath.Join(execDDir, "agentmon")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		return rs.InternalErrorf("writing exec.d script %s: %v", scriptPath, err)
	}
	return nil
}

// CopyLaunchBinaries ships the daemon and loop binaries from the buildpack
// directory into the layer so they survive into the launch image. It returns
// the layer paths of the daemon and the loop binary.
func CopyLaunchBinaries(ctx *rs.Context, layer *libcnb.Layer) (string, string, error) {
	binDir := filepath.Join(layer.Path, "bin")
	if err := ctx.MkdirAll(binDir, 0755); err != nil {
		return "", "", err
	}
	var dests []string
	for _, name := range []string{"launchdaemon", "agentmonloop"} {
		src := filepath.Join(ctx.BuildpackRoot(), "bin", name)
		dest := filepath.Join(binDir, name)
		b, err := os.ReadFile(src)
		if err != nil {
			return "", "", rs.InternalErrorf("reading %s: %v", src, err)
		}
		if err := os.WriteFile(dest, b, 0755); err != nil {
			return "", "", rs.InternalErrorf("writing %s: %v", dest, err)
		}
		if err := makeExecutable(dest); err != nil {
			return "", "", err
		}
		dests = append(dests, dest)
	}
	return dests[0], dests[1], nil
}

// makeExecutable adds owner execute permissions to the file.
func makeExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return rs.InternalErrorf("stat %s: %v", path, err)
	}
	if err := os.Chmod(path, info.Mode()|0700); err != nil {
		return rs.InternalErrorf("chmod %s: %v", path, err)
	}
	return nil
}
