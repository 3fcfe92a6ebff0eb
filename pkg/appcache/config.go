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

// Package appcache persists directories that live inside the application
// workspace across builds by mirroring them into cache layers, with
// size-bounded eviction by modification time.
package appcache

// KeepPath is the policy for the workspace directory during the store phase.
type KeepPath int

const (
	// KeepPathRuntime leaves the directory in place; its contents are
	// mirrored into the cache store so they remain available at launch.
	KeepPathRuntime KeepPath = iota
	// KeepPathBuildOnly moves the directory out of the workspace entirely;
	// it only exists during builds.
	KeepPathBuildOnly
)

func (k KeepPath) String() string {
	if k == KeepPathBuildOnly {
		return "build-only"
	}
	return "runtime"
}

// Config describes one cached directory. It is immutable once constructed;
// one instance exists per cached directory per build.
type Config struct {
	// Path is the absolute path of the directory inside the application workspace.
	Path string
	// Limit is the byte ceiling the cache store is kept under.
	Limit int64
	// KeepPath selects whether the workspace directory survives the store phase.
	KeepPath KeepPath
}

// MiB converts a mebibyte count to bytes.
func MiB(n int64) int64 {
	return n << 20
}
