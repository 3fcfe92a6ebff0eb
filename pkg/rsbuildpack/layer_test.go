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
	"os"
	"path/filepath"
	"testing"

	"github.com/rubystack/buildpacks/pkg/env"
)

func TestLayerCreatesDirectoryAndTOML(t *testing.T) {
	ctx := NewTestContext(t)

	l, err := ctx.Layer("runtime", BuildLayer, CacheLayer)
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}

	if fi, err := os.Stat(l.Path); err != nil || !fi.IsDir() {
		t.Errorf("layer dir %q not created: %v", l.Path, err)
	}
	if _, err := os.Stat(l.Path + ".toml"); err != nil {
		t.Errorf("layer toml not written: %v", err)
	}
	if !l.Build || !l.Cache || l.Launch {
		t.Errorf("layer types = build:%t cache:%t launch:%t, want build and cache only", l.Build, l.Cache, l.Launch)
	}
}

func TestLayerMetadataRoundTrip(t *testing.T) {
	ctx := NewTestContext(t)

	l, err := ctx.Layer("meta", CacheLayer)
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	ctx.SetMetadata(l, "version", "3.2.2")
	if err := ctx.SaveLayer(l); err != nil {
		t.Fatalf("SaveLayer: %v", err)
	}

	// A fresh Layer call simulates the next build restoring the layer.
	l2, err := ctx.Layer("meta")
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if got, want := ctx.GetMetadata(l2, "version"), "3.2.2"; got != want {
		t.Errorf("GetMetadata got %q, want %q", got, want)
	}
}

func TestCacheLayerHonorsNoCache(t *testing.T) {
	ctx := NewTestContext(t)
	t.Setenv(env.NoCache, "1")

	l, err := ctx.Layer("gems", CacheLayer)
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if l.Cache {
		t.Errorf("layer is a cache layer despite %s", env.NoCache)
	}
}

func TestClearLayerResetsContentAndMetadata(t *testing.T) {
	ctx := NewTestContext(t)

	l, err := ctx.Layer("scratch")
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if err := os.WriteFile(filepath.Join(l.Path, "f.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	ctx.SetMetadata(l, "k", "v")

	if err := ctx.ClearLayer(l); err != nil {
		t.Fatalf("ClearLayer: %v", err)
	}
	if _, err := os.Stat(filepath.Join(l.Path, "f.txt")); !os.IsNotExist(err) {
		t.Errorf("layer content survived ClearLayer")
	}
	if got := ctx.GetMetadata(l, "k"); got != "" {
		t.Errorf("metadata survived ClearLayer: %q", got)
	}
}

func TestSaveLayerWritesEnvFiles(t *testing.T) {
	ctx := NewTestContext(t)

	l, err := ctx.Layer("envs", LaunchLayer)
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	l.LaunchEnvironment.Default("RACK_ENV", "production")
	if err := ctx.SaveLayer(l); err != nil {
		t.Fatalf("SaveLayer: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(l.Path, "env.launch", "RACK_ENV.default"))
	if err != nil {
		t.Fatalf("reading env file: %v", err)
	}
	if got, want := string(b), "production"; got != want {
		t.Errorf("env file content got %q, want %q", got, want)
	}
}
