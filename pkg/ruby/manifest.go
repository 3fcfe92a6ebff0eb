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

package ruby

import (
	"os"

	"gopkg.in/yaml.v2"

	rs "github.com/rubystack/buildpacks/pkg/rsbuildpack"
)

// AssetManifest is the sprockets 2 manifest.yml written to public/assets,
// mapping logical asset names to their fingerprinted file names.
type AssetManifest struct {
	Assets map[string]string `yaml:"assets"`
}

// ReadAssetManifest parses a sprockets manifest.yml. A missing manifest
// returns nil without error.
func ReadAssetManifest(path string) (*AssetManifest, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m AssetManifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, rs.UserErrorf("parsing asset manifest %s: %v", path, err)
	}
	return &m, nil
}
