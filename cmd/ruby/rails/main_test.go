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

package main

import (
	"path/filepath"
	"testing"

	"github.com/rubystack/buildpacks/pkg/appcache"
	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

func TestDetect(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		want  bool
	}{
		{
			name:  "rails app with assets",
			files: map[string]string{"bin/rails": "", "app/assets/app.css": ""},
			want:  true,
		},
		{
			name:  "not a rails app",
			files: map[string]string{"config.ru": ""},
			want:  false,
		},
		{
			name:  "rails app without assets",
			files: map[string]string{"bin/rails": ""},
			want:  false,
		},
		{
			name: "precompiled manifest checked in",
			files: map[string]string{
				"bin/rails":                  "",
				"app/assets/app.css":         "",
				"public/assets/manifest.yml": "",
			},
			want: false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rs.TestDetect(t, detectFn, tc.files, nil, tc.want)
		})
	}
}

func TestAssetCacheConfigs(t *testing.T) {
	ctx := rs.NewTestContext(t)
	configs := assetCacheConfigs(ctx)

	if len(configs) != 2 {
		t.Fatalf("got %d cache configs, want 2", len(configs))
	}
	public := configs[0]
	if public.Path != filepath.Join(ctx.ApplicationRoot(), "public", "assets") {
		t.Errorf("first cache path = %q, want public/assets", public.Path)
	}
	if public.KeepPath != appcache.KeepPathRuntime {
		t.Errorf("public/assets keep path = %v, want KeepPathRuntime", public.KeepPath)
	}
	fragment := configs[1]
	if fragment.KeepPath != appcache.KeepPathBuildOnly {
		t.Errorf("tmp/cache/assets keep path = %v, want KeepPathBuildOnly", fragment.KeepPath)
	}
	for _, cfg := range configs {
		if cfg.Limit != appcache.MiB(100) {
			t.Errorf("cache %q limit = %d, want %d", cfg.Path, cfg.Limit, appcache.MiB(100))
		}
	}

	// The configs must produce distinct layer names.
	if _, err := appcache.NewCollection(ctx, configs); err != nil {
		t.Errorf("NewCollection rejected the asset cache configs: %v", err)
	}
}
