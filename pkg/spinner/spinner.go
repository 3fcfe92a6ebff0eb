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

// Package spinner prints progress dots while a long-running step executes.
package spinner

import (
	"fmt"
	"io"
	"time"
)

// Spinner writes a dot to its writer once per second until stopped.
type Spinner struct {
	w      io.Writer
	ticker *time.Ticker
	done   chan struct{}
	joined chan struct{}
}

// Start begins printing dots on its own goroutine.
func Start(w io.Writer) *Spinner {
	s := &Spinner{
		w:      w,
		ticker: time.NewTicker(1 * time.Second),
		done:   make(chan struct{}),
		joined: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Spinner) loop() {
	defer close(s.joined)
	for {
		select {
		case <-s.done:
			fmt.Fprintln(s.w)
			return
		case <-s.ticker.C:
			fmt.Fprint(s.w, ".")
		}
	}
}

// Stop ends the dot output and waits for the goroutine to exit. Stop must be
// called exactly once.
func (s *Spinner) Stop() {
	s.ticker.Stop()
	close(s.done)
	<-s.joined
}
