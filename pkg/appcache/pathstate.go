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

import "os"

// PathState classifies a workspace directory at restore time. It is a pure
// function of filesystem state at call time and is never cached.
type PathState int

const (
	// StateDoesNotExist means the directory is absent.
	StateDoesNotExist PathState = iota
	// StateEmpty means the directory exists with zero entries.
	StateEmpty
	// StateHasFiles means the directory exists and contains entries.
	StateHasFiles
)

func (s PathState) String() string {
	switch s {
	case StateDoesNotExist:
		return "does not exist"
	case StateEmpty:
		return "empty"
	default:
		return "has files"
	}
}

// ClassifyPath inspects a directory and reports its state.
func ClassifyPath(path string) (PathState, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return StateDoesNotExist, nil
	} else if err != nil {
		return StateDoesNotExist, &Error{Kind: KindIO, AppPath: path, Err: err}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return StateDoesNotExist, &Error{Kind: KindIO, AppPath: path, Err: err}
	}
	if len(entries) == 0 {
		return StateEmpty, nil
	}
	return StateHasFiles, nil
}
