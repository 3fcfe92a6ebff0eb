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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FilesWithSize reports files removed by eviction and their aggregate size.
type FilesWithSize struct {
	Bytes int64
	Files []string
}

// Count returns the number of reported files.
func (f FilesWithSize) Count() int {
	return len(f.Files)
}

// Evict selects the least-recently-modified entries whose removal brings the
// kept total within limit. Ties in modification time are broken by relative
// path for determinism. A limit of zero evicts everything; an inventory that
// already fits evicts nothing.
func Evict(entries []Entry, limit int64) (removed []Entry, keptBytes int64) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.Before(sorted[j].ModTime)
		}
		return sorted[i].RelPath < sorted[j].RelPath
	})

	if limit <= 0 {
		return sorted, 0
	}

	// Keep from the newest entry backwards while the running total fits;
	// everything older than the first entry that does not fit is evicted.
	i := len(sorted) - 1
	for ; i >= 0; i-- {
		if keptBytes+sorted[i].Size > limit {
			break
		}
		keptBytes += sorted[i].Size
	}
	return sorted[:i+1], keptBytes
}

// Clean runs eviction against the inventory of dir, deletes the selected
// files and prunes directories left empty. Per-file deletion failures are
// collected rather than aborting at the first.
func Clean(dir string, limit int64) (FilesWithSize, error) {
	entries, err := Inventory(dir)
	if err != nil {
		return FilesWithSize{}, err
	}
	if totalSize(entries) <= limit && limit > 0 {
		return FilesWithSize{}, nil
	}

	removed, _ := Evict(entries, limit)

	var errs []error
	result := FilesWithSize{}
	for _, e := range removed {
		if err := os.Remove(filepath.Join(dir, e.RelPath)); err != nil {
			errs = append(errs, &Error{Kind: KindIO, CachePath: filepath.Join(dir, e.RelPath), Err: err})
			continue
		}
		result.Bytes += e.Size
		result.Files = append(result.Files, e.RelPath)
	}
	if err := pruneEmptyDirs(dir); err != nil {
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

// pruneEmptyDirs removes directories under root left empty by eviction. The
// root itself is kept.
func pruneEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return &Error{Kind: KindIO, CachePath: root, Err: err}
	}
	// Deepest first so emptied parents are removed too.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			return &Error{Kind: KindIO, CachePath: d, Err: err}
		}
		if len(entries) == 0 {
			if err := os.Remove(d); err != nil {
				return &Error{Kind: KindIO, CachePath: d, Err: err}
			}
		}
	}
	return nil
}
