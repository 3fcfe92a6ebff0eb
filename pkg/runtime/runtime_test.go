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

package runtime

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

func TestResolveVersionExactSkipsManifest(t *testing.T) {
	// No test server is registered, so any manifest fetch would fail.
	ctx := rs.NewTestContext(t)
	got, err := ResolveVersion(ctx, "3.2.2")
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if got != "3.2.2" {
		t.Errorf("ResolveVersion = %q, want 3.2.2", got)
	}
}

func TestResolveVersionFromManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["3.3.0", "3.2.2", "3.1.4"]`))
	}))
	defer server.Close()
	swapURLs(t, server.URL+"/%s/ruby-%s.tar.gz", server.URL+"/%s/versions.json")

	ctx := rs.NewTestContext(t)
	got, err := ResolveVersion(ctx, "~> 3.2")
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if got != "3.2.2" {
		t.Errorf("ResolveVersion = %q, want 3.2.2", got)
	}
}

func TestInstallTarballIfNotCached(t *testing.T) {
	var downloads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "versions.json") {
			w.Write([]byte(`["3.2.2"]`))
			return
		}
		downloads++
		w.Write(rubyTarball(t))
	}))
	defer server.Close()
	swapURLs(t, server.URL+"/%s/ruby-%s.tar.gz", server.URL+"/%s/versions.json")

	ctx := rs.NewTestContext(t)
	layer, err := ctx.Layer("ruby", rs.CacheLayer, rs.BuildLayer, rs.LaunchLayer)
	if err != nil {
		t.Fatalf("creating layer: %v", err)
	}

	cached, err := InstallTarballIfNotCached(ctx, "3.2.2", layer)
	if err != nil {
		t.Fatalf("InstallTarballIfNotCached: %v", err)
	}
	if cached {
		t.Error("first install reported cache hit")
	}
	if _, err := os.Stat(filepath.Join(layer.Path, "bin", "ruby")); err != nil {
		t.Errorf("ruby binary not extracted: %v", err)
	}

	// Reload the layer as the next build would and expect a hit.
	layer2, err := ctx.Layer("ruby", rs.CacheLayer, rs.BuildLayer, rs.LaunchLayer)
	if err != nil {
		t.Fatalf("creating layer: %v", err)
	}
	cached, err = InstallTarballIfNotCached(ctx, "3.2.2", layer2)
	if err != nil {
		t.Fatalf("InstallTarballIfNotCached: %v", err)
	}
	if !cached {
		t.Error("second install missed the cache")
	}
	if downloads != 1 {
		t.Errorf("tarball downloaded %d times, want 1", downloads)
	}
}

func TestIsCachedRequiresMatchingStack(t *testing.T) {
	ctx := rs.NewTestContext(t)
	layer, err := ctx.Layer("ruby", rs.CacheLayer)
	if err != nil {
		t.Fatalf("creating layer: %v", err)
	}
	ctx.SetMetadata(layer, versionKey, "3.2.2")
	ctx.SetMetadata(layer, stackKey, "some.other.stack")

	if IsCached(ctx, layer, "3.2.2") {
		t.Error("IsCached true for a different stack")
	}
	ctx.SetMetadata(layer, stackKey, ctx.StackID())
	if !IsCached(ctx, layer, "3.2.2") {
		t.Error("IsCached false for matching version and stack")
	}
}

func swapURLs(t *testing.T, tarball, versions string) {
	t.Helper()
	origTarball, origVersions := tarballURL, versionsURL
	tarballURL, versionsURL = tarball, versions
	t.Cleanup(func() {
		tarballURL, versionsURL = origTarball, origVersions
	})
}

func rubyTarball(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	content := "#!"
	if err := tw.WriteHeader(&tar.Header{Name: "bin", Mode: 0755, Typeflag: tar.TypeDir}); err != nil {
		t.Fatal(err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: "bin/ruby", Mode: 0755, Size: int64(len(content))}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
