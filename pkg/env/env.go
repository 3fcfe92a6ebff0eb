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

// Package env specifies environment variables used to configure buildpack behavior.
package env

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// RuntimeVersion is an env var used to specify which Ruby version to install.
	// Example: `3.2.2`.
	RuntimeVersion = "RUBYSTACK_RUNTIME_VERSION"

	// DebugMode enables more verbose logging.
	// Example: `true`, `True`, `1` will enable debug mode.
	DebugMode = "RUBYSTACK_DEBUG"

	// NoCache is an env var used to disable creation of cache layers.
	NoCache = "RUBYSTACK_NO_CACHE"

	// Entrypoint is an env var used to override the default web process.
	// Example: `bundle exec puma -p 8080`.
	Entrypoint = "RUBYSTACK_ENTRYPOINT"

	// MetricsURL is a launch-time env var holding the statsd endpoint the
	// metrics agent reports to. The agent is a no-op when it is unset.
	MetricsURL = "HEROKU_METRICS_URL"

	// Port is the launch-time env var holding the port the application listens
	// on; the metrics agent derives its statsd listen address from it.
	Port = "PORT"

	// Dyno is the launch-time env var naming the running process instance.
	// One-off (`run.*`) instances do not report metrics.
	Dyno = "DYNO"

	// AgentmonDebug enables debug output from the metrics agent.
	// Example: `true`, `True`, `1`.
	AgentmonDebug = "AGENTMON_DEBUG"
)

// IsDebugMode returns true if the buildpack debug mode is enabled.
func IsDebugMode() (bool, error) {
	return IsPresentAndTrue(DebugMode)
}

// IsPresentAndTrue returns true if the environment variable evaluates to True.
func IsPresentAndTrue(varName string) (bool, error) {
	varValue, present := os.LookupEnv(varName)
	if !present || varValue == "" {
		return false, nil
	}

	parsed, err := strconv.ParseBool(varValue)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %v", varName, err)
	}

	return parsed, nil
}
