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

// Package fileutil contains utilities for filesystem operations.
package fileutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type action string

const (
	move action = "move"
	copy action = "copy"
)

// AllPaths indicates all paths should be recursively walked for functions
// that walk the filesystem.
var AllPaths = func(path string, d fs.DirEntry) (bool, error) {
	return true, nil
}

// SkipExistingFiles returns a condition that excludes files that already exist
// at the corresponding destination path. Directories are always descended into
// so their missing files still transfer.
func SkipExistingFiles(destPath, srcPath string) func(path string, d fs.DirEntry) (bool, error) {
	return func(path string, d fs.DirEntry) (bool, error) {
		if d.IsDir() {
			return true, nil
		}
		relPath, err := filepath.Rel(srcPath, path)
		if err != nil {
			return false, err
		}
		if _, err := os.Lstat(filepath.Join(destPath, relPath)); err == nil {
			return false, nil
		} else if !os.IsNotExist(err) {
			return false, err
		}
		return true, nil
	}
}

// MaybeCopyPathContents recursively copies the contents of srcPath to destPath.
func MaybeCopyPathContents(destPath, srcPath string, copyCondition func(path string, d fs.DirEntry) (bool, error)) error {
	return moveOrCopyPath(copy, destPath, srcPath, copyCondition)
}

// MaybeMovePathContents moves the contents of srcPath to destPath.
func MaybeMovePathContents(destPath, srcPath string, moveCondition func(path string, d fs.DirEntry) (bool, error)) error {
	return moveOrCopyPath(move, destPath, srcPath, moveCondition)
}

// moveOrCopyPath recursively copies or moves files and directories: from srcPath to destPath.
// Directories that already exist at the destination are merged into, not replaced.
func moveOrCopyPath(moveOrCopy action, destPath, srcPath string, condition func(path string, d fs.DirEntry) (bool, error)) error {
	return filepath.WalkDir(srcPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip the root
		if path == srcPath {
			return nil
		}

		shouldTransfer, err := condition(path, d)
		if err != nil {
			return err
		}

		if !shouldTransfer {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(srcPath, path)
		if err != nil {
			return err
		}

		dest := filepath.Join(destPath, relPath)

		if d.IsDir() {
			if _, err := os.Stat(dest); err == nil {
				// Destination directory exists, merge by walking into it.
				return nil
			} else if !os.IsNotExist(err) {
				return err
			}
			if moveOrCopy == move {
				if err := os.Rename(path, dest); err != nil {
					return err
				}
				// Rename moves the entire directory, so don't need to continue
				// walking the directory.
				return filepath.SkipDir
			}
			return os.MkdirAll(dest, 0755)
		}

		if moveOrCopy == move {
			return os.Rename(path, dest)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return copySymlink(dest, path)
		}
		return CopyFile(dest, path)
	})
}

// CopyFile copies a file from src to dest, preserving mode and modification
// time. The modification time drives cache eviction recency, so a copied file
// must not look newer than its source.
func CopyFile(dest, src string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Close(); err != nil {
		return err
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}

func copySymlink(dest, src string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Symlink(target, dest)
}
