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

// The launchdaemon command detaches the agentmon run loop from the exec.d
// invocation that starts it. It forks the loop binary into its own session
// and returns immediately so the web process start is never delayed.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	logPath      string
	loopPath     string
	agentmonPath string
)

func main() {
	cmd := &cobra.Command{
		Use:           "launchdaemon",
		Short:         "Start the agentmon run loop as a detached process",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return launch(logPath, loopPath, agentmonPath)
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "file the run loop output is appended to")
	cmd.Flags().StringVar(&loopPath, "loop-path", "", "path to the run loop binary")
	cmd.Flags().StringVar(&agentmonPath, "agentmon", "", "path to the agentmon binary")
	cmd.MarkFlagRequired("log")
	cmd.MarkFlagRequired("loop-path")
	cmd.MarkFlagRequired("agentmon")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "launchdaemon: %v\n", err)
		os.Exit(1)
	}
}

// launch starts the run loop in a new session. The child is deliberately
// leaked: it must outlive this process and is torn down with the container.
func launch(logPath, loopPath, agentmonPath string) error {
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	loop := exec.Command(loopPath, "--agentmon", agentmonPath)
	loop.Stdout = logFile
	loop.Stderr = logFile
	loop.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := loop.Start(); err != nil {
		return fmt.Errorf("starting run loop %s: %w", loopPath, err)
	}
	return loop.Process.Release()
}
