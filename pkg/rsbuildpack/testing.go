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
	"strings"
	"testing"

	"github.com/buildpacks/libcnb/v2"
)

// NewTestContext returns a context rooted in temp directories for tests.
func NewTestContext(t *testing.T, opts ...ContextOption) *Context {
	t.Helper()
	base := []ContextOption{
		WithBuildpackInfo(libcnb.BuildpackInfo{ID: "id", Version: "version", Name: "name"}),
		WithApplicationRoot(t.TempDir()),
		WithBuildpackRoot(t.TempDir()),
		WithLayersDir(t.TempDir()),
		WithStackID("test.stack"),
	}
	return NewContext(append(base, opts...)...)
}

// TestDetect runs a detect function against a temp application directory
// populated with the given files and asserts the opt-in decision. A file name
// ending in "/" creates a directory.
func TestDetect(t *testing.T, detectFn DetectFn, files map[string]string, envs []string, wantPass bool) {
	t.Helper()
	ctx := NewTestContext(t)

	for f, c := range files {
		fn := filepath.Join(ctx.ApplicationRoot(), f)
		if strings.HasSuffix(f, "/") {
			if err := os.MkdirAll(fn, 0755); err != nil {
				t.Fatalf("creating dir %s: %v", fn, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
			t.Fatalf("creating dir for %s: %v", fn, err)
		}
		if err := os.WriteFile(fn, []byte(c), 0644); err != nil {
			t.Fatalf("writing file %s: %v", fn, err)
		}
	}
	for _, e := range envs {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			t.Fatalf("malformed env %q", e)
		}
		t.Setenv(k, v)
	}

	result, err := detectFn(ctx)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if got := result.Result().Pass; got != wantPass {
		t.Errorf("detect pass = %t (%s), want %t", got, result.Reason(), wantPass)
	}
}
