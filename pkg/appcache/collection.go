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
	"errors"
	"fmt"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

// Collection manages N independent app caches sharing one layers root. A
// failure in one member never hides failures or progress in the others.
type Collection struct {
	ctx    *rs.Context
	caches []*AppCache
}

// NewCollection constructs one AppCache per config. Duplicate derived names
// are a configuration error, detected before any restore or store runs.
func NewCollection(ctx *rs.Context, configs []Config) (*Collection, error) {
	col := &Collection{ctx: ctx}
	seen := map[string]string{}
	for _, cfg := range configs {
		c, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[c.Name()]; ok {
			return nil, &Error{
				Kind:    KindInvalidCacheName,
				AppPath: cfg.Path,
				Err:     fmt.Errorf("cache name %q already used by %s", c.Name(), prev),
			}
		}
		seen[c.Name()] = cfg.Path
		col.caches = append(col.caches, c)
	}
	return col, nil
}

// RestoreAll restores every member, collecting all errors rather than
// stopping at the first.
func (col *Collection) RestoreAll() error {
	var errs []error
	for _, c := range col.caches {
		switch c.State() {
		case StateNewCache:
			col.ctx.Logf("Creating cache for %s", c.Path())
		case StateChangedCache:
			col.ctx.Logf("Clearing cache for %s: cached path changed from %s", c.Path(), c.OldPath())
		default:
			col.ctx.Logf("Loading cache for %s", c.Path())
		}
		if _, err := c.Restore(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StoreAll stores every member and logs eviction results, collecting all
// errors rather than stopping at the first.
func (col *Collection) StoreAll() error {
	var errs []error
	for _, c := range col.caches {
		col.ctx.Logf("Storing cache for %s", c.Path())
		removed, err := c.Store()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if removed.Count() > 0 {
			col.ctx.Logf("Evicted %d file(s) (%d bytes) from cache for %s", removed.Count(), removed.Bytes, c.Path())
		}
	}
	return errors.Join(errs...)
}
