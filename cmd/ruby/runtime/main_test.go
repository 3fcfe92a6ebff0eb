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

package main

import (
	"testing"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

func TestDetect(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		want  bool
	}{
		{
			name:  "with Gemfile",
			files: map[string]string{"Gemfile": ""},
			want:  true,
		},
		{
			name:  "with gems.rb",
			files: map[string]string{"gems.rb": ""},
			want:  true,
		},
		{
			name:  "with rb files",
			files: map[string]string{"main.rb": ""},
			want:  true,
		},
		{
			name:  "no ruby files",
			files: map[string]string{"index.php": ""},
			want:  false,
		},
		{
			name:  "rb files in subdirectory only",
			files: map[string]string{"lib/main.rb": ""},
			want:  false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rs.TestDetect(t, detectFn, tc.files, nil, tc.want)
		})
	}
}
