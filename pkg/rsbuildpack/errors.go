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

package rsbuildpack

import (
	"errors"

	"github.com/rubystack/buildpacks/pkg/buildererror"
)

// Error is re-exported for convenience of buildpack implementations.
type Error = buildererror.Error

// Errorf constructs a builder error with the given status.
func Errorf(status buildererror.Status, format string, args ...interface{}) *Error {
	return buildererror.Errorf(status, format, args...)
}

// InternalErrorf constructs a platform-attributed builder error.
func InternalErrorf(format string, args ...interface{}) *Error {
	return buildererror.InternalErrorf(format, args...)
}

// UserErrorf constructs a user-attributed builder error.
func UserErrorf(format string, args ...interface{}) *Error {
	return buildererror.UserErrorf(format, args...)
}

func asBuilderError(err error, be **buildererror.Error) bool {
	return errors.As(err, be)
}
