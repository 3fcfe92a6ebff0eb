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
	"os"
	"path/filepath"
	"testing"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

func TestNewCollectionRejectsDuplicateNames(t *testing.T) {
	ctx := rs.NewTestContext(t)
	path := filepath.Join(ctx.ApplicationRoot(), "public", "assets")

	_, err := NewCollection(ctx, []Config{
		{Path: path, Limit: MiB(1)},
		{Path: path, Limit: MiB(2)},
	})
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindInvalidCacheName {
		t.Fatalf("NewCollection error = %v, want KindInvalidCacheName", err)
	}
}

func TestCollectionRestoreAndStore(t *testing.T) {
	ctx := rs.NewTestContext(t)
	assets := filepath.Join(ctx.ApplicationRoot(), "public", "assets")
	tmpCache := filepath.Join(ctx.ApplicationRoot(), "tmp", "cache", "assets")

	col, err := NewCollection(ctx, []Config{
		{Path: assets, Limit: MiB(100), KeepPath: KeepPathRuntime},
		{Path: tmpCache, Limit: MiB(100), KeepPath: KeepPathBuildOnly},
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if err := col.RestoreAll(); err != nil {
		t.Fatalf("RestoreAll: %v", err)
	}

	// The build step populates both directories.
	writeFileAt(t, filepath.Join(assets, "app.css"), "body{}", at(1))
	writeFileAt(t, filepath.Join(tmpCache, "sprockets", "x.cache"), "x", at(2))

	if err := col.StoreAll(); err != nil {
		t.Fatalf("StoreAll: %v", err)
	}
	if _, err := os.Stat(assets); err != nil {
		t.Errorf("runtime path missing after store: %v", err)
	}
	if _, err := os.Stat(tmpCache); !os.IsNotExist(err) {
		t.Errorf("build-only path present after store")
	}
}

func TestStoreAllAggregatesErrors(t *testing.T) {
	ctx := rs.NewTestContext(t)
	good := filepath.Join(ctx.ApplicationRoot(), "good")
	bad := filepath.Join(ctx.ApplicationRoot(), "bad")
	writeFileAt(t, filepath.Join(good, "a.txt"), "a", at(1))
	writeFileAt(t, filepath.Join(bad, "b.txt"), "b", at(2))

	col, err := NewCollection(ctx, []Config{
		{Path: bad, Limit: MiB(1), KeepPath: KeepPathRuntime},
		{Path: good, Limit: MiB(1), KeepPath: KeepPathRuntime},
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}

	// Sabotage the bad cache store so its transfer fails.
	badLayer := col.caches[0].layer.Path
	if err := os.RemoveAll(badLayer); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(badLayer, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	err = col.StoreAll()
	if err == nil {
		t.Fatal("StoreAll succeeded, want error for sabotaged member")
	}
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("StoreAll error %v is not a cache error", err)
	}

	// The healthy member still stored despite the failure.
	goodLayer := col.caches[1].layer.Path
	if _, statErr := os.Stat(filepath.Join(goodLayer, "a.txt")); statErr != nil {
		t.Errorf("healthy cache not stored alongside failing one: %v", statErr)
	}
}
