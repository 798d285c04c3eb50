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

// Command scheduler runs the placement engine's scheduling turns against
// whatever snapshots the (out-of-scope, spec.md §1) master RPC server
// feeds it. This binary wires pkg/placement to a Prometheus metrics
// endpoint and flag-based logging verbosity, in the flag.StringVar/zap
// idiom of aws-karpenter-provider-aws/karpenter/main.go.
package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clustersched/galaxy/pkg/metrics"
	"github.com/clustersched/galaxy/pkg/placement"
)

// Options for running this binary.
type Options struct {
	Verbose     bool
	MetricsPort int
}

func main() {
	options := Options{}
	flag.BoolVar(&options.Verbose, "verbose", false, "Enable verbose logging.")
	flag.IntVar(&options.MetricsPort, "metrics-port", 9090, "Port the metrics endpoint binds to.")
	flag.Parse()

	logger := newLogger(options.Verbose)
	defer logger.Sync() //nolint:errcheck

	metrics.MustRegister(prometheus.DefaultRegisterer)
	// The master RPC server that feeds Sync*/Schedule* calls to engine is
	// out of scope (spec.md §1); this binary only stands the engine up and
	// exposes its metrics for whatever transport wires the calls in.
	engine := placement.New(logger)
	logger.Infow("placement engine ready", "agents", engine.AgentCount(), "jobs", engine.JobCount())

	http.Handle("/metrics", promhttp.Handler())
	logger.Infof("serving metrics on :%d", options.MetricsPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", options.MetricsPort), nil); err != nil {
		logger.Fatalw("metrics server exited", "error", err)
	}
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}
