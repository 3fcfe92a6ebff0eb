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

package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeTarball returns a gzipped tarball holding the given path/content pairs.
func makeTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	for path, content := range files {
		hdr := &tar.Header{Name: path, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTarball(t *testing.T) {
	tarball := makeTarball(t, map[string]string{"ruby/bin/ruby": "#!"})

	testCases := []struct {
		name            string
		httpStatus      int
		body            []byte
		stripComponents int
		wantFile        string
		wantError       bool
	}{
		{
			name:     "simple untar",
			body:     tarball,
			wantFile: "ruby/bin/ruby",
		},
		{
			name:            "strip components",
			body:            tarball,
			stripComponents: 1,
			wantFile:        "bin/ruby",
		},
		{
			name:       "not found",
			httpStatus: http.StatusNotFound,
			wantError:  true,
		},
		{
			name:      "corrupt tar file",
			body:      []byte("not a tarball"),
			wantError: true,
		},
		{
			name:            "strip too many components",
			body:            tarball,
			stripComponents: 3,
			wantError:       true,
		},
		{
			name:      "path traversal",
			body:      makeTarball(t, map[string]string{"../escape.txt": "nope"}),
			wantError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := serve(t, tc.httpStatus, tc.body)

			dir := t.TempDir()
			err := Tarball(server.URL, dir, tc.stripComponents)
			if tc.wantError == (err == nil) {
				t.Fatalf("Tarball(%q, %q, %v) got error: %v, want error? %v", server.URL, dir, tc.stripComponents, err, tc.wantError)
			}

			if tc.wantFile != "" && !tc.wantError {
				fp := filepath.Join(dir, tc.wantFile)
				if _, err := os.Stat(fp); err != nil {
					t.Errorf("Failed to extract. Missing file: %s (%v)", fp, err)
				}
			}
		})
	}
}

func TestCheckedTarball(t *testing.T) {
	tarball := makeTarball(t, map[string]string{"agentmon": "binary"})
	sum := sha256.Sum256(tarball)
	goodSHA := hex.EncodeToString(sum[:])

	testCases := []struct {
		name      string
		sha       string
		wantError bool
	}{
		{name: "matching digest", sha: goodSHA},
		{name: "digest mismatch", sha: "deadbeef", wantError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := serve(t, 0, tarball)
			dir := t.TempDir()
			err := CheckedTarball(server.URL, tc.sha, dir, 0)
			if tc.wantError == (err == nil) {
				t.Fatalf("CheckedTarball got error: %v, want error? %v", err, tc.wantError)
			}
			if _, statErr := os.Stat(filepath.Join(dir, "agentmon")); (statErr == nil) == tc.wantError {
				t.Errorf("extracted file present: %v, want present? %v", statErr == nil, !tc.wantError)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	testCases := []struct {
		name       string
		httpStatus int
		response   string
		wantError  bool
		want       map[string]string
	}{
		{
			name:     "valid json",
			response: `{"foo": "bar"}`,
			want:     map[string]string{"foo": "bar"},
		},
		{
			name:       "not found",
			httpStatus: http.StatusNotFound,
			wantError:  true,
		},
		{
			name:      "invalid json",
			response:  "foo bar",
			wantError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := serve(t, tc.httpStatus, []byte(tc.response))

			var got map[string]string
			err := JSON(server.URL, &got)
			if tc.wantError == (err == nil) {
				t.Fatalf("JSON(%q) got error: %v, want error? %v", server.URL, err, tc.wantError)
			}
			if tc.wantError {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("JSON response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetURL(t *testing.T) {
	server := serve(t, 0, []byte("hello"))

	var buf bytes.Buffer
	if err := GetURL(server.URL, &buf); err != nil {
		t.Fatalf("GetURL: %v", err)
	}
	if got := buf.String(); got != "hello" {
		t.Errorf("GetURL body = %q, want %q", got, "hello")
	}
}
