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
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/buildpacks/libcnb/v2"

	"github.com/rubystack/buildpacks/pkg/buildererror"
	"github.com/rubystack/buildpacks/pkg/env"
)

const (
	layerMode os.FileMode = 0755
)

// layerTOML mirrors the lifecycle's <layers>/<name>.toml content.
type layerTOML struct {
	Types struct {
		Build  bool `toml:"build"`
		Cache  bool `toml:"cache"`
		Launch bool `toml:"launch"`
	} `toml:"types"`
	Metadata map[string]interface{} `toml:"metadata"`
}

// LayerOption configures a layer returned by ctx.Layer.
type LayerOption func(ctx *Context, l *libcnb.Layer)

// BuildLayer marks the layer available to subsequent buildpacks at build time.
var BuildLayer = func(ctx *Context, l *libcnb.Layer) {
	l.Build = true
}

// CacheLayer marks the layer for persistence between builds. It is a no-op
// when cache layers are disabled through the environment.
var CacheLayer = func(ctx *Context, l *libcnb.Layer) {
	disabled, err := env.IsPresentAndTrue(env.NoCache)
	if err != nil {
		ctx.Warnf("%v", err)
	}
	if disabled {
		ctx.Logf("Layer %q: marked as non-cache layer because %s is set.", l.Name, env.NoCache)
		return
	}
	l.Cache = true
}

// LaunchLayer marks the layer available to the application at launch time.
var LaunchLayer = func(ctx *Context, l *libcnb.Layer) {
	l.Launch = true
}

// Layer returns a layer, creating its directory and restoring any metadata the
// lifecycle carried over from a previous build.
func (ctx *Context) Layer(name string, opts ...LayerOption) (*libcnb.Layer, error) {
	l := libcnb.Layer{
		Name:              name,
		Path:              filepath.Join(ctx.layersDir, name),
		Metadata:          map[string]interface{}{},
		BuildEnvironment:  libcnb.Environment{},
		LaunchEnvironment: libcnb.Environment{},
		SharedEnvironment: libcnb.Environment{},
	}
	if err := ctx.MkdirAll(l.Path, layerMode); err != nil {
		return nil, err
	}
	if err := readLayerTOML(&l); err != nil {
		return nil, err
	}
	for _, o := range opts {
		o(ctx, &l)
	}
	if err := ctx.SaveLayer(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ClearLayer erases the existing layer contents and resets its metadata.
func (ctx *Context) ClearLayer(l *libcnb.Layer) error {
	if err := ctx.RemoveAll(l.Path); err != nil {
		return err
	}
	if err := ctx.MkdirAll(l.Path, layerMode); err != nil {
		return err
	}
	l.Metadata = map[string]interface{}{}
	return ctx.SaveLayer(l)
}

// GetMetadata returns the value of a metadata key persisted with the layer, or
// the empty string when it is not present.
func (ctx *Context) GetMetadata(l *libcnb.Layer, key string) string {
	v, ok := l.Metadata[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		ctx.Warnf("Layer %q: metadata %q is not a string, ignoring.", l.Name, key)
		return ""
	}
	return s
}

// SetMetadata sets a metadata key on the layer. The value is durable only
// after SaveLayer.
func (ctx *Context) SetMetadata(l *libcnb.Layer, key, value string) {
	l.Metadata[key] = value
}

// SaveLayer writes the layer content TOML and any contributed env files.
func (ctx *Context) SaveLayer(l *libcnb.Layer) error {
	var lt layerTOML
	lt.Types.Build = l.Build
	lt.Types.Cache = l.Cache
	lt.Types.Launch = l.Launch
	lt.Metadata = l.Metadata

	f, err := os.Create(layerTOMLPath(l))
	if err != nil {
		return buildererror.Errorf(buildererror.StatusInternal, "creating layer metadata for %q: %v", l.Name, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(lt); err != nil {
		return buildererror.Errorf(buildererror.StatusInternal, "encoding layer metadata for %q: %v", l.Name, err)
	}

	envDirs := map[string]libcnb.Environment{
		"env":        l.SharedEnvironment,
		"env.build":  l.BuildEnvironment,
		"env.launch": l.LaunchEnvironment,
	}
	for dir, environ := range envDirs {
		if len(environ) == 0 {
			continue
		}
		envDir := filepath.Join(l.Path, dir)
		if err := ctx.MkdirAll(envDir, layerMode); err != nil {
			return err
		}
		for name, value := range environ {
			if err := os.WriteFile(filepath.Join(envDir, name), []byte(value), 0644); err != nil {
				return buildererror.Errorf(buildererror.StatusInternal, "writing env file %s for layer %q: %v", name, l.Name, err)
			}
		}
	}
	return nil
}

// readLayerTOML restores layer types and metadata from a previous build.
func readLayerTOML(l *libcnb.Layer) error {
	path := layerTOMLPath(l)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return buildererror.Errorf(buildererror.StatusInternal, "stat %q: %v", path, err)
	}
	var lt layerTOML
	if _, err := toml.DecodeFile(path, &lt); err != nil {
		return buildererror.Errorf(buildererror.StatusInternal, "decoding layer metadata for %q: %v", l.Name, err)
	}
	l.Build = lt.Types.Build
	l.Cache = lt.Types.Cache
	l.Launch = lt.Types.Launch
	if lt.Metadata != nil {
		l.Metadata = lt.Metadata
	}
	return nil
}

func layerTOMLPath(l *libcnb.Layer) string {
	return fmt.Sprintf("%s.toml", l.Path)
}
