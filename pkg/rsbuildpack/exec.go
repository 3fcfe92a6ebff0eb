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
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rubystack/buildpacks/pkg/buildererror"
)

var divider = strings.Repeat("—", 80)

// ExecResult bundles exec results.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Combined string
}

type execParams struct {
	cmd         []string
	userFailure bool
	dir         string
	env         []string
}

type execOption func(o *execParams)

// WithEnv sets environment variables (of the form "KEY=value").
func WithEnv(env ...string) execOption {
	return func(o *execParams) {
		o.env = env
	}
}

// WithWorkDir sets a specific working directory.
func WithWorkDir(dir string) execOption {
	return func(o *execParams) {
		o.dir = dir
	}
}

// WithUserAttribution indicates that a failure is attributed to the user.
var WithUserAttribution = func(o *execParams) {
	o.userFailure = true
}

// Exec runs the given command (with args) under the default configuration,
// allowing the caller to handle the error.
func (ctx *Context) Exec(cmd []string, opts ...execOption) (*ExecResult, error) {
	params := execParams{cmd: cmd}
	for _, o := range opts {
		o(&params)
	}

	result, err := ctx.configuredExec(params)
	if err == nil {
		return result, nil
	}

	var be *buildererror.Error
	if result == nil {
		be = buildererror.InternalErrorf(err.Error())
	} else if params.userFailure {
		be = buildererror.UserErrorf(result.Combined)
	} else {
		be = buildererror.InternalErrorf(result.Combined)
	}
	be.ID = buildererror.GenerateErrorID(params.cmd...)
	return result, be
}

func (ctx *Context) configuredExec(params execParams) (*ExecResult, error) {
	if len(params.cmd) < 1 {
		return nil, fmt.Errorf("no command provided")
	}
	if params.cmd[0] == "" {
		return nil, fmt.Errorf("empty command provided")
	}

	// For "system" commands, we only log if the debug flag is present.
	log := params.userFailure || ctx.debug

	optionalLogf := func(format string, args ...interface{}) {
		if !log {
			return
		}
		ctx.Logf(format, args...)
	}

	readableCmd := strings.Join(params.cmd, " ")
	if len(params.env) > 0 {
		env := strings.Join(params.env, " ")
		readableCmd = fmt.Sprintf("%s (%s)", readableCmd, env)
	}
	optionalLogf(divider)
	optionalLogf("Running %q", readableCmd)

	defer func(start time.Time) {
		truncated := readableCmd
		if len(truncated) > 60 {
			truncated = truncated[:60] + "..."
		}
		optionalLogf("Done %q (%v)", truncated, time.Since(start))
	}(time.Now())

	exitCode := 0
	ecmd := exec.Command(params.cmd[0], params.cmd[1:]...)

	if params.dir != "" {
		ecmd.Dir = params.dir
	}

	if len(params.env) > 0 {
		ecmd.Env = append(os.Environ(), params.env...)
	}

	var outb, errb bytes.Buffer
	combinedb := lockingBuffer{log: log}
	ecmd.Stdout = io.MultiWriter(&outb, &combinedb)
	ecmd.Stderr = io.MultiWriter(&errb, &combinedb)

	if err := ecmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			// The command returned a non-zero result.
			exitCode = ee.ExitCode()
		} else {
			return nil, fmt.Errorf("executing command %q: %v", readableCmd, err)
		}
	}

	result := &ExecResult{
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(outb.String()),
		Stderr:   strings.TrimSpace(errb.String()),
		Combined: strings.TrimSpace(string(combinedb.Bytes())),
	}

	if exitCode != 0 {
		return result, fmt.Errorf("executing command %q: exit code %d", readableCmd, exitCode)
	}

	return result, nil
}

type lockingBuffer struct {
	buf bytes.Buffer
	sync.Mutex

	// log tells the buffer to also log the output to stderr.
	log bool
}

func (lb *lockingBuffer) Write(p []byte) (int, error) {
	lb.Lock()
	defer lb.Unlock()
	if lb.log {
		os.Stderr.Write(p)
	}
	return lb.buf.Write(p)
}

func (lb *lockingBuffer) Bytes() []byte {
	lb.Lock()
	defer lb.Unlock()
	return lb.buf.Bytes()
}
