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

// The agentmonloop command keeps the agentmon metrics agent running for the
// lifetime of the dyno, restarting it after crashes with a short backoff.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/rubystack/buildpacks/pkg/env"
)

const restartDelay = 1 * time.Second

var agentmonPath string

func main() {
	cmd := &cobra.Command{
		Use:           "agentmonloop",
		Short:         "Supervise the agentmon metrics agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return loop(agentmonPath)
		},
	}
	cmd.Flags().StringVar(&agentmonPath, "agentmon", "", "path to the agentmon binary")
	cmd.MarkFlagRequired("agentmon")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentmonloop: %v\n", err)
		os.Exit(1)
	}
}

func loop(agentmonPath string) error {
	if dyno := os.Getenv(env.Dyno); strings.HasPrefix(dyno, "run.") {
		fmt.Printf("One-off dyno %q detected, not starting agentmon.\n", dyno)
		return nil
	}
	args, err := agentmonArgs()
	if err != nil {
		return err
	}
	if args == nil {
		fmt.Printf("%s is unset, not starting agentmon.\n", env.MetricsURL)
		return nil
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, unix.SIGTERM, unix.SIGINT)

	for {
		agentmon := exec.Command(agentmonPath, args...)
		agentmon.Stdout = os.Stdout
		agentmon.Stderr = os.Stderr
		if err := agentmon.Run(); err != nil {
			fmt.Printf("agentmon exited: %v\n", err)
		}

		select {
		case sig := <-stop:
			fmt.Printf("Received %v, exiting.\n", sig)
			return nil
		case <-time.After(restartDelay):
		}
	}
}

// agentmonArgs assembles the agentmon command line from the dyno environment.
// A nil result means metrics reporting is not configured.
func agentmonArgs() ([]string, error) {
	metricsURL := os.Getenv(env.MetricsURL)
	if metricsURL == "" {
		return nil, nil
	}
	port := os.Getenv(env.Port)
	if port == "" {
		return nil, fmt.Errorf("%s must be set to receive statsd metrics", env.Port)
	}

	args := []string{"-statsd-addr", ":" + port}
	debug, err := env.IsPresentAndTrue(env.AgentmonDebug)
	if err != nil {
		return nil, err
	}
	if debug {
		args = append(args, "-debug")
	}
	return append(args, metricsURL), nil
}
