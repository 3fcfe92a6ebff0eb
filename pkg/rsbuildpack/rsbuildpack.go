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

// Package rsbuildpack is a framework for implementing buildpacks (https://buildpacks.io/).
package rsbuildpack

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/buildpacks/libcnb/v2"
	"github.com/rs/xid"

	"github.com/rubystack/buildpacks/pkg/buildererror"
	"github.com/rubystack/buildpacks/pkg/env"
)

const (
	// passStatusCode is the exit code a detect binary returns to opt in.
	passStatusCode = 0
	// failStatusCode is the exit code a detect binary returns to opt out.
	failStatusCode = 100

	// cacheHitMessage is emitted by ctx.CacheHit(). Must match acceptance test value.
	cacheHitMessage = "***** CACHE HIT:"

	// cacheMissMessage is emitted by ctx.CacheMiss(). Must match acceptance test value.
	cacheMissMessage = "***** CACHE MISS:"

	stackIDEnv      = "CNB_STACK_ID"
	buildpackDirEnv = "CNB_BUILDPACK_DIR"
)

var logger = log.New(os.Stderr, "", 0)

// DetectFn is the callback signature for Detect().
type DetectFn func(*Context) (DetectResult, error)

// BuildFn is the callback signature for Build().
type BuildFn func(*Context) error

// Context provides contextually aware functions for buildpack authors.
type Context struct {
	info            libcnb.BuildpackInfo
	buildID         string
	applicationRoot string
	buildpackRoot   string
	layersDir       string
	planPath        string
	stackID         string
	debug           bool
	processes       []libcnb.Process
}

// ContextOption configures Context.
type ContextOption func(ctx *Context)

// WithBuildpackInfo sets the buildpack info on the context.
func WithBuildpackInfo(info libcnb.BuildpackInfo) ContextOption {
	return func(ctx *Context) {
		ctx.info = info
	}
}

// WithApplicationRoot sets the application root on the context.
func WithApplicationRoot(root string) ContextOption {
	return func(ctx *Context) {
		ctx.applicationRoot = root
	}
}

// WithBuildpackRoot sets the buildpack root on the context.
func WithBuildpackRoot(root string) ContextOption {
	return func(ctx *Context) {
		ctx.buildpackRoot = root
	}
}

// WithLayersDir sets the layers directory on the context.
func WithLayersDir(dir string) ContextOption {
	return func(ctx *Context) {
		ctx.layersDir = dir
	}
}

// WithStackID sets the stack ID on the context.
func WithStackID(stackID string) ContextOption {
	return func(ctx *Context) {
		ctx.stackID = stackID
	}
}

// NewContext creates a context.
func NewContext(opts ...ContextOption) *Context {
	debug, err := env.IsDebugMode()
	if err != nil {
		logger.Printf("Warning: %v", err)
	}
	ctx := &Context{
		debug:   debug,
		buildID: xid.New().String(),
	}
	for _, o := range opts {
		o(ctx)
	}
	return ctx
}

// BuildpackID returns the buildpack id.
func (ctx *Context) BuildpackID() string {
	return ctx.info.ID
}

// BuildpackVersion returns the buildpack version.
func (ctx *Context) BuildpackVersion() string {
	return ctx.info.Version
}

// BuildpackName returns the buildpack name.
func (ctx *Context) BuildpackName() string {
	return ctx.info.Name
}

// BuildID returns an opaque identifier for this build invocation.
func (ctx *Context) BuildID() string {
	return ctx.buildID
}

// ApplicationRoot returns the root folder of the application code.
func (ctx *Context) ApplicationRoot() string {
	return ctx.applicationRoot
}

// BuildpackRoot returns the root folder of the buildpack.
func (ctx *Context) BuildpackRoot() string {
	return ctx.buildpackRoot
}

// StackID returns the stack id of the build.
func (ctx *Context) StackID() string {
	return ctx.stackID
}

// Main is the main entrypoint to a buildpack's detect and build functions.
func Main(d DetectFn, b BuildFn) {
	switch filepath.Base(os.Args[0]) {
	case "detect":
		detect(d)
	case "build":
		build(b)
	default:
		logger.Print("Unknown command, expected 'detect' or 'build'.")
		os.Exit(1)
	}
}

// newLifecycleContext builds a Context from the process environment the
// lifecycle sets up for /bin/detect and /bin/build invocations.
func newLifecycleContext() *Context {
	appRoot, err := os.Getwd()
	if err != nil {
		logger.Printf("Failed to determine application root: %v", err)
		os.Exit(1)
	}
	ctx := NewContext(WithApplicationRoot(appRoot), WithStackID(os.Getenv(stackIDEnv)))
	ctx.buildpackRoot = os.Getenv(buildpackDirEnv)
	if ctx.buildpackRoot == "" {
		ctx.buildpackRoot = filepath.Dir(filepath.Dir(os.Args[0]))
	}
	info, err := readBuildpackInfo(ctx.buildpackRoot)
	if err != nil {
		logger.Printf("Failed to read buildpack.toml: %v", err)
		os.Exit(1)
	}
	ctx.info = info
	return ctx
}

// detect implements the /bin/detect phase of the buildpack.
func detect(f DetectFn) {
	ctx := newLifecycleContext()
	if len(os.Args) > 2 {
		ctx.planPath = os.Args[2]
	}

	result, err := f(ctx)
	if err != nil {
		msg := fmt.Sprintf("Failed to run /bin/detect: %v", err)
		var be *buildererror.Error
		if ok := asBuilderError(err, &be); ok {
			ctx.Exit(1, be)
		}
		ctx.Exit(1, buildererror.Errorf(buildererror.StatusInternal, msg))
	}

	ctx.Logf(result.Reason())
	if !result.Result().Pass {
		os.Exit(failStatusCode)
	}
	if ctx.planPath != "" && len(result.Result().Plans) > 0 {
		if err := writeBuildPlans(ctx.planPath, result.Result().Plans); err != nil {
			ctx.Exit(1, buildererror.Errorf(buildererror.StatusInternal, "writing build plan: %v", err))
		}
	}
	os.Exit(passStatusCode)
}

// build implements the /bin/build phase of the buildpack.
func build(b BuildFn) {
	ctx := newLifecycleContext()
	if len(os.Args) > 1 {
		ctx.layersDir = os.Args[1]
	}
	ctx.Logf("======== %s@%s ========", ctx.BuildpackID(), ctx.BuildpackVersion())
	ctx.Logf(ctx.BuildpackName())

	if err := b(ctx); err != nil {
		msg := fmt.Sprintf("Failed to run /bin/build: %v", err)
		var be *buildererror.Error
		if ok := asBuilderError(err, &be); ok {
			ctx.Exit(1, be)
		}
		ctx.Exit(1, buildererror.Errorf(buildererror.StatusInternal, msg))
	}

	if len(ctx.processes) > 0 {
		if err := ctx.writeLaunchMetadata(); err != nil {
			ctx.Exit(1, buildererror.Errorf(buildererror.StatusInternal, "writing launch metadata: %v", err))
		}
	}
}

// Exit causes the buildpack to exit with the given exit code and message.
func (ctx *Context) Exit(exitCode int, be *buildererror.Error) {
	if be != nil {
		be.BuildpackID = ctx.BuildpackID()
		be.BuildpackVersion = ctx.BuildpackVersion()
		ctx.Logf("Failure: " + be.Message)
	}
	os.Exit(exitCode)
}

// Logf emits a structured logging line.
func (ctx *Context) Logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Debugf emits a structured logging line if the debug flag is set.
func (ctx *Context) Debugf(format string, args ...interface{}) {
	if !ctx.debug {
		return
	}
	ctx.Logf("DEBUG: "+format, args...)
}

// Warnf emits a structured logging line for warnings.
func (ctx *Context) Warnf(format string, args ...interface{}) {
	ctx.Logf("Warning: "+format, args...)
}

// CacheHit records a cache hit debug message. This is used in acceptance test validation.
func (ctx *Context) CacheHit(tag string) {
	ctx.Debugf("%s %q", cacheHitMessage, tag)
}

// CacheMiss records a cache miss debug message. This is used in acceptance test validation.
func (ctx *Context) CacheMiss(tag string) {
	ctx.Debugf("%s %q", cacheMissMessage, tag)
}

// AddWebProcess adds the given command as the web start process, overwriting any previous web start process.
func (ctx *Context) AddWebProcess(cmd []string) {
	current := ctx.processes
	ctx.processes = nil
	for _, p := range current {
		if p.Type == "web" {
			ctx.Warnf("Overwriting existing web process %q.", p.Command)
			continue
		}
		ctx.processes = append(ctx.processes, p)
	}
	ctx.processes = append(ctx.processes, libcnb.Process{
		Type:    "web",
		Command: cmd,
		Default: true,
	})
}

// readBuildpackInfo parses the [buildpack] table of a buildpack.toml.
func readBuildpackInfo(buildpackRoot string) (libcnb.BuildpackInfo, error) {
	var bp struct {
		Buildpack libcnb.BuildpackInfo `toml:"buildpack"`
	}
	path := filepath.Join(buildpackRoot, "buildpack.toml")
	if _, err := toml.DecodeFile(path, &bp); err != nil {
		return libcnb.BuildpackInfo{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return bp.Buildpack, nil
}

// writeBuildPlans serializes detect-phase build plans to the plan path.
func writeBuildPlans(path string, plans []libcnb.BuildPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	// The first plan is the top-level table, the rest are [[or]] alternatives.
	if err := toml.NewEncoder(f).Encode(plans[0]); err != nil {
		return err
	}
	for _, alt := range plans[1:] {
		var or struct {
			Or []libcnb.BuildPlan `toml:"or"`
		}
		or.Or = []libcnb.BuildPlan{alt}
		if err := toml.NewEncoder(f).Encode(or); err != nil {
			return err
		}
	}
	return nil
}

// writeLaunchMetadata writes launch.toml with the declared processes.
func (ctx *Context) writeLaunchMetadata() error {
	var launch struct {
		Processes []libcnb.Process `toml:"processes"`
	}
	launch.Processes = ctx.processes
	f, err := os.Create(filepath.Join(ctx.layersDir, "launch.toml"))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(launch)
}
