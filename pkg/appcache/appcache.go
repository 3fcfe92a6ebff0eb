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

package appcache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/buildpacks/libcnb/v2"

	"github.com/rubystack/buildpacks/pkg/fileutil"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

// appDirPathKey is the metadata key recording which workspace directory the
// cache store content belongs to.
const appDirPathKey = "app_dir_path"

// layerNameRe is the character set the lifecycle accepts for layer names.
var layerNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// CacheState classifies the relationship between the current config and the
// metadata persisted by a previous build. Derived, never stored.
type CacheState int

const (
	// StateNewCache means no prior metadata exists; first build.
	StateNewCache CacheState = iota
	// StateSameCache means the cached path is unchanged and safe to reuse.
	StateSameCache
	// StateChangedCache means the cached path differs from the previous
	// build; the stored content belongs to another directory and must be
	// discarded, never merged.
	StateChangedCache
)

// AppCache manages one cached workspace directory across a build: restore on
// build start, store with eviction on build end, and metadata-driven
// invalidation when the configuration changes.
type AppCache struct {
	ctx     *rs.Context
	config  Config
	layer   *libcnb.Layer
	state   CacheState
	oldPath string
}

// New validates the config, derives the backing layer and classifies the
// cache state. Configuration errors surface here, before any filesystem
// mutation of the workspace.
func New(ctx *rs.Context, config Config) (*AppCache, error) {
	rel, err := filepath.Rel(ctx.ApplicationRoot(), config.Path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil, &Error{Kind: KindPathNotInAppDir, AppPath: config.Path}
	}

	name := "cache_" + strings.Join(strings.Split(rel, string(filepath.Separator)), "_")
	if !layerNameRe.MatchString(name) {
		return nil, &Error{Kind: KindInvalidCacheName, AppPath: config.Path, Err: fmt.Errorf("name %q contains invalid characters", name)}
	}

	layer, err := ctx.Layer(name, rs.CacheLayer)
	if err != nil {
		return nil, &Error{Kind: KindIO, AppPath: config.Path, Err: err}
	}

	c := &AppCache{ctx: ctx, config: config, layer: layer}
	switch prior := ctx.GetMetadata(layer, appDirPathKey); prior {
	case "":
		c.state = StateNewCache
	case config.Path:
		c.state = StateSameCache
	default:
		c.state = StateChangedCache
		c.oldPath = prior
	}
	return c, nil
}

// Name returns the layer name backing this cache.
func (c *AppCache) Name() string {
	return c.layer.Name
}

// Path returns the cached workspace directory.
func (c *AppCache) Path() string {
	return c.config.Path
}

// State returns the cache state classified at construction.
func (c *AppCache) State() CacheState {
	return c.state
}

// OldPath returns the previously cached path when State is StateChangedCache.
func (c *AppCache) OldPath() string {
	return c.oldPath
}

// Restore brings cache store content back into the workspace directory.
// Exactly one of move, copy or no-op runs, selected by the cache state, the
// path state and the keep-path policy. Pre-existing workspace files are never
// overwritten. Metadata is persisted only once the transfer has succeeded, so
// a failed transfer re-surfaces on the next build instead of being masked.
func (c *AppCache) Restore() (PathState, error) {
	switch c.state {
	case StateNewCache:
		if err := os.MkdirAll(c.config.Path, 0755); err != nil {
			return StateDoesNotExist, &Error{Kind: KindIO, AppPath: c.config.Path, Err: err}
		}
		return StateDoesNotExist, c.persistMetadata()

	case StateChangedCache:
		// The stored content belongs to the old path's directory; discard it.
		if err := c.ctx.ClearLayer(c.layer); err != nil {
			return StateDoesNotExist, &Error{Kind: KindIO, CachePath: c.layer.Path, Err: err}
		}
		if err := os.MkdirAll(c.config.Path, 0755); err != nil {
			return StateDoesNotExist, &Error{Kind: KindIO, AppPath: c.config.Path, Err: err}
		}
		return StateDoesNotExist, c.persistMetadata()

	default: // StateSameCache
		state, err := ClassifyPath(c.config.Path)
		if err != nil {
			return state, err
		}
		if state == StateDoesNotExist {
			if err := os.MkdirAll(c.config.Path, 0755); err != nil {
				return state, &Error{Kind: KindIO, AppPath: c.config.Path, Err: err}
			}
		}
		condition := fileutil.SkipExistingFiles(c.config.Path, c.layer.Path)
		if c.config.KeepPath == KeepPathBuildOnly {
			err = fileutil.MaybeMovePathContents(c.config.Path, c.layer.Path, condition)
		} else {
			err = fileutil.MaybeCopyPathContents(c.config.Path, c.layer.Path, condition)
		}
		if err != nil {
			return state, &Error{Kind: KindCopyCacheToApp, AppPath: c.config.Path, CachePath: c.layer.Path, Err: err}
		}
		return state, nil
	}
}

// Store transfers the workspace directory into the cache store and evicts the
// least-recently-modified files until the store fits under the configured
// limit. A missing workspace directory is a zero-file store, not an error.
func (c *AppCache) Store() (FilesWithSize, error) {
	state, err := ClassifyPath(c.config.Path)
	if err != nil {
		return FilesWithSize{}, err
	}
	if state == StateDoesNotExist {
		return FilesWithSize{}, c.persistMetadata()
	}

	if c.config.KeepPath == KeepPathBuildOnly {
		if err := fileutil.MaybeMovePathContents(c.layer.Path, c.config.Path, fileutil.AllPaths); err != nil {
			return FilesWithSize{}, &Error{Kind: KindMoveAppToCache, AppPath: c.config.Path, CachePath: c.layer.Path, Err: err}
		}
		if err := os.RemoveAll(c.config.Path); err != nil {
			return FilesWithSize{}, &Error{Kind: KindMoveAppToCache, AppPath: c.config.Path, CachePath: c.layer.Path, Err: err}
		}
	} else {
		if err := fileutil.MaybeCopyPathContents(c.layer.Path, c.config.Path, fileutil.AllPaths); err != nil {
			return FilesWithSize{}, &Error{Kind: KindCopyAppToCache, AppPath: c.config.Path, CachePath: c.layer.Path, Err: err}
		}
	}

	if err := c.persistMetadata(); err != nil {
		return FilesWithSize{}, err
	}

	return Clean(c.layer.Path, c.config.Limit)
}

func (c *AppCache) persistMetadata() error {
	c.ctx.SetMetadata(c.layer, appDirPathKey, c.config.Path)
	if err := c.ctx.SaveLayer(c.layer); err != nil {
		return &Error{Kind: KindIO, CachePath: c.layer.Path, Err: err}
	}
	return nil
}
