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

// Package metrics holds the master-side placement engine's Prometheus
// collectors, in the same CounterVec style as the teacher's
// pkg/metrics/metrics.go, bound to prometheus's own registry instead of
// controller-runtime's since this module runs no controller-runtime
// manager.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const Namespace = "galaxy_scheduler"

var (
	// PlacementTurnsTotal counts scheduling turns, labeled by kind
	// (scale_up, scale_down, overload). Supplemented from
	// original_source's turn counter (SPEC_FULL §4.5).
	PlacementTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "placement",
			Name:      "turns_total",
			Help:      "Number of scheduling turns run, labeled by kind.",
		},
		[]string{"kind"},
	)

	// ProposalsEmittedTotal counts proposals emitted, labeled by action
	// (Launch, Terminate).
	ProposalsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "placement",
			Name:      "proposals_emitted_total",
			Help:      "Number of ScheduleInfo proposals emitted, labeled by action.",
		},
		[]string{"action"},
	)

	// OverloadPreemptionsTotal counts preemption proposals emitted by the
	// overload scan.
	OverloadPreemptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "placement",
			Name:      "overload_preemptions_total",
			Help:      "Number of best-effort pods proposed for termination due to sustained agent CPU overload.",
		},
	)
)

// MustRegister registers every collector in this package with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(PlacementTurnsTotal, ProposalsEmittedTotal, OverloadPreemptionsTotal)
}
