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

package podagent

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the pod-manager's Prometheus collectors, modeled on the
// teacher's pkg/metrics/metrics.go CounterVec style. They are package-level
// so repeated Manager construction in tests never double-registers a
// collector with the default registry.
var (
	podsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "galaxy_agent",
		Subsystem: "pods",
		Name:      "accepted_total",
		Help:      "Number of pods accepted by Run, excluding idempotent repeats.",
	})
	forkFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "galaxy_agent",
		Subsystem: "pods",
		Name:      "fork_failures_total",
		Help:      "Number of initd fork attempts that failed.",
	})
	stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "galaxy_agent",
		Subsystem: "pods",
		Name:      "state_transitions_total",
		Help:      "Number of pod state transitions observed by the monitor loop, labeled by resulting state.",
	}, []string{"state"})
)

// Metrics is a thin per-Manager view over the package-level collectors, so
// Manager methods can call m.metric.podsAccepted.Inc() without reaching for
// package-level identifiers directly.
type Metrics struct {
	podsAccepted     prometheus.Counter
	forkFailures     prometheus.Counter
	stateTransitions *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		podsAccepted:     podsAccepted,
		forkFailures:     forkFailures,
		stateTransitions: stateTransitions,
	}
}

// MustRegister registers the pod-manager's collectors with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(podsAccepted, forkFailures, stateTransitions)
}
