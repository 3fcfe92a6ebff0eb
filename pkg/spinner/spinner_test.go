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

package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// syncBuffer guards the underlying buffer, the spinner goroutine writes
// concurrently with the test's reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerStopsAndJoins(t *testing.T) {
	var buf syncBuffer
	s := Start(&buf)
	s.Stop()

	// After Stop returns the goroutine has exited, so the output is final.
	got := buf.String()
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("spinner output %q does not end with newline", got)
	}
	if strings.Trim(got, ".\n") != "" {
		t.Errorf("spinner wrote unexpected output %q", got)
	}
	if buf.String() != got {
		t.Error("spinner kept writing after Stop returned")
	}
}
