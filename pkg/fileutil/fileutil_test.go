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

package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTree creates files under root; a path ending in "/" creates a directory.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for f, c := range files {
		fn := filepath.Join(root, f)
		if f[len(f)-1] == '/' {
			if err := os.MkdirAll(fn, 0755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fn, []byte(c), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[rel] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %q: %v", root, err)
	}
	return got
}

func TestMaybeCopyPathContentsCopiesAll(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt":        "a",
		"sub/b.txt":    "b",
		"sub/in/c.txt": "c",
	})

	if err := MaybeCopyPathContents(dest, src, AllPaths); err != nil {
		t.Fatalf("MaybeCopyPathContents: %v", err)
	}

	got := readTree(t, dest)
	for _, rel := range []string{"a.txt", "sub/b.txt", "sub/in/c.txt"} {
		if _, ok := got[rel]; !ok {
			t.Errorf("missing %q in destination", rel)
		}
	}
	// Source remains intact after a copy.
	if _, err := os.Stat(filepath.Join(src, "a.txt")); err != nil {
		t.Errorf("source file removed by copy: %v", err)
	}
}

func TestMaybeMovePathContentsEmptiesSource(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})

	if err := MaybeMovePathContents(dest, src, AllPaths); err != nil {
		t.Fatalf("MaybeMovePathContents: %v", err)
	}

	got := readTree(t, dest)
	if got["a.txt"] != "a" || got["sub/b.txt"] != "b" {
		t.Errorf("destination tree = %v, want a.txt and sub/b.txt", got)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("source not emptied by move: %v", entries)
	}
}

func TestMoveMergesIntoExistingDirectories(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"sub/new.txt": "new"})
	writeTree(t, dest, map[string]string{"sub/old.txt": "old"})

	if err := MaybeMovePathContents(dest, src, AllPaths); err != nil {
		t.Fatalf("MaybeMovePathContents: %v", err)
	}

	got := readTree(t, dest)
	if got["sub/old.txt"] != "old" || got["sub/new.txt"] != "new" {
		t.Errorf("destination tree = %v, want merged sub/ contents", got)
	}
}

func TestSkipExistingFiles(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"kept.txt": "from-cache",
		"new.txt":  "from-cache",
	})
	writeTree(t, dest, map[string]string{"kept.txt": "from-app"})

	if err := MaybeCopyPathContents(dest, src, SkipExistingFiles(dest, src)); err != nil {
		t.Fatalf("MaybeCopyPathContents: %v", err)
	}

	got := readTree(t, dest)
	if got["kept.txt"] != "from-app" {
		t.Errorf("existing file overwritten: %q", got["kept.txt"])
	}
	if got["new.txt"] != "from-cache" {
		t.Errorf("missing file not transferred: %q", got["new.txt"])
	}
}

func TestCopyFilePreservesModTime(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	srcFile := filepath.Join(src, "f.txt")
	if err := os.WriteFile(srcFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(srcFile, want, want); err != nil {
		t.Fatal(err)
	}

	destFile := filepath.Join(dest, "f.txt")
	if err := CopyFile(destFile, srcFile); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	fi, err := os.Stat(destFile)
	if err != nil {
		t.Fatal(err)
	}
	if !fi.ModTime().Equal(want) {
		t.Errorf("mod time got %v, want %v", fi.ModTime(), want)
	}
}
