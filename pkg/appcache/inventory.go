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
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry is one file in a directory inventory. Symlinks appear as entries of
// their own size and are not followed.
type Entry struct {
	RelPath string
	Size    int64
	ModTime time.Time
}

// Inventory walks dir and returns an entry per file. A missing dir yields an
// empty inventory. Ordering is walk order and not significant.
func Inventory(dir string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		mtime := info.ModTime()
		if mtime.IsZero() {
			return &Error{Kind: KindMtimeUnsupported, CachePath: dir, AppPath: path}
		}
		entries = append(entries, Entry{RelPath: rel, Size: info.Size(), ModTime: mtime})
		return nil
	})
	if err != nil {
		if ce, ok := err.(*Error); ok {
			return nil, ce
		}
		return nil, &Error{Kind: KindIO, AppPath: dir, Err: err}
	}
	return entries, nil
}

func totalSize(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total
}
