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

import "fmt"

// Kind classifies cache failures so callers can react to configuration
// mistakes, transfer failures and platform limitations differently.
type Kind int

const (
	// KindPathNotInAppDir means the configured path is outside the application workspace.
	KindPathNotInAppDir Kind = iota
	// KindInvalidCacheName means the derived layer name is not usable.
	KindInvalidCacheName
	// KindCopyCacheToApp means a restore transfer out of the cache store failed.
	KindCopyCacheToApp
	// KindCopyAppToCache means a store copy into the cache store failed.
	KindCopyAppToCache
	// KindMoveAppToCache means a destructive store move into the cache store failed.
	KindMoveAppToCache
	// KindIO is any other filesystem failure.
	KindIO
	// KindMtimeUnsupported means the platform does not report modification
	// times, so recency-based eviction cannot run.
	KindMtimeUnsupported
)

// Error is a cache failure carrying both endpoints for diagnostics.
type Error struct {
	Kind      Kind
	AppPath   string
	CachePath string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindPathNotInAppDir:
		return fmt.Sprintf("cached path %s must be inside the application directory", e.AppPath)
	case KindInvalidCacheName:
		return fmt.Sprintf("invalid cache name derived from %s: %v", e.AppPath, e.Err)
	case KindCopyCacheToApp:
		return fmt.Sprintf("restoring cache %s into %s: %v", e.CachePath, e.AppPath, e.Err)
	case KindCopyAppToCache:
		return fmt.Sprintf("copying %s into cache %s: %v", e.AppPath, e.CachePath, e.Err)
	case KindMoveAppToCache:
		return fmt.Sprintf("moving %s into cache %s: %v", e.AppPath, e.CachePath, e.Err)
	case KindMtimeUnsupported:
		return fmt.Sprintf("modification times unavailable under %s: eviction is not supported on this platform", e.CachePath)
	default:
		return fmt.Sprintf("cache %s (app path %s): %v", e.CachePath, e.AppPath, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
