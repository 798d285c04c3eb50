/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command agent runs the per-node pod manager: it accepts pod descriptors
// over whatever transport the real deployment wires in (spec.md §1, out of
// scope here) and drives their lifecycle via pkg/podagent. Flags use
// spf13/cobra+pflag, in the idiom the retrieval pack's cobra-based CLIs
// use, deliberately distinct from cmd/scheduler's bare flag package.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clustersched/galaxy/pkg/config"
	"github.com/clustersched/galaxy/pkg/podagent"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	settings := config.DefaultAgentSettings()
	var verbose bool
	var timeoutMS int

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run the galaxy pod manager agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.RPCInitdTimeout = time.Duration(timeoutMS) * time.Millisecond
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}
			return run(cmd.Context(), settings, verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&settings.GCEWorkDir, "gce-work-dir", settings.GCEWorkDir, "root directory for pod work directories")
	flags.StringVar(&settings.InitdBin, "agent-initd-bin", settings.InitdBin, "path to the initd executable")
	flags.IntVar(&timeoutMS, "agent-rpc-initd-timeout", int(settings.RPCInitdTimeout/time.Millisecond), "RPC deadline for heartbeat calls, in milliseconds")
	flags.BoolVar(&verbose, "verbose", false, "enable verbose logging")

	return cmd
}

func run(ctx context.Context, settings config.AgentSettings, verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck
	logger := zl.Sugar()
	lr := zapr.NewLogger(zl)

	podagent.MustRegister(prometheus.DefaultRegisterer)

	// The RPC stub dialer and task manager are external collaborators
	// (spec.md §1, §6); nopStub/nopTaskManager stand in until the real
	// transport and initd/task-manager client are wired by the deployment.
	mgr := podagent.NewManager(settings.GCEWorkDir, settings.InitdBin, settings.RPCInitdTimeout, nopDialer, nopTaskManager{}, logger, lr)

	logger.Infow("pod manager starting", "workDir", settings.GCEWorkDir, "initdBin", settings.InitdBin)
	mgr.RunMonitor(ctx)
	return nil
}
