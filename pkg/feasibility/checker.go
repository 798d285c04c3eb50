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

// Package feasibility implements the per-agent admission predicate: given a
// snapshot of one agent's resources and a pod's aggregate requirement,
// decide whether the pod could be admitted. It mirrors the node-fit checks
// karpenter's existingnode.Add performs (taints/port usage/volume usage/
// resource fit) but against this module's own Resource/AgentInfo types and
// a production/best-effort capacity split instead of node affinity.
package feasibility

import (
	"github.com/clustersched/galaxy/pkg/resource"
)

// Reason explains a rejection for DEBUG logging only; it is never part of
// the boolean contract callers observe (spec.md §4.1: "pure function...
// rejection with a logged reason; no exception class").
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnknownJobType
	ReasonCPU
	ReasonMemory
	ReasonPort
	ReasonDisk
	ReasonSSD
)

func (r Reason) String() string {
	switch r {
	case ReasonUnknownJobType:
		return "unknown job type"
	case ReasonCPU:
		return "insufficient millicores"
	case ReasonMemory:
		return "insufficient memory"
	case ReasonPort:
		return "port conflict"
	case ReasonDisk:
		return "disk volumes do not best-fit"
	case ReasonSSD:
		return "ssd volumes do not best-fit"
	default:
		return "none"
	}
}

// Check evaluates whether a pod requiring an aggregate resource.Resource of
// req, belonging to a job of type jobType, fits on agent a. It returns
// (true, ReasonNone) on success or (false, <first failing reason>) on
// rejection. The function is pure: it never mutates a.
func Check(a *resource.AgentInfo, jobType resource.JobType, req resource.Resource) (bool, Reason) {
	if jobType != resource.JobTypeLongRun && jobType != resource.JobTypeSystem && jobType != resource.JobTypeBatch {
		return false, ReasonUnknownJobType
	}

	var bucket resource.Resource
	if jobType.IsProduction() {
		bucket = a.Unassigned
	} else {
		bucket = a.Free
	}

	if bucket.Millicores < req.Millicores {
		return false, ReasonCPU
	}
	if bucket.Memory < req.Memory {
		return false, ReasonMemory
	}
	for p := range req.Ports {
		if a.Used.HasPort(p) {
			return false, ReasonPort
		}
	}
	if !bestFit(bucket.Disks, req.Disks) {
		return false, ReasonDisk
	}
	if !bestFit(bucket.SSDs, req.SSDs) {
		return false, ReasonSSD
	}
	return true, ReasonNone
}

// bestFit implements the sweep described in spec.md §4.1: sort both the
// unassigned volumes and the required volumes ascending by quota, then walk
// the unassigned volumes with a single pointer into required, advancing the
// required pointer whenever the next required quota fits in the current
// unassigned volume. Fit succeeds only if every required volume is
// consumed by the end of the sweep.
//
// spec.md §9 Open Question (a): the original's loop used a
// `fit_index < size-1` success check, which looks like an off-by-one. We
// take the spec's stated intent literally: success means "all required
// volumes consumed", i.e. fitIndex == len(required) when the sweep ends.
func bestFit(unassigned, required []resource.Volume) bool {
	if len(required) == 0 {
		return true
	}
	u := resource.SortedByQuota(unassigned)
	r := resource.SortedByQuota(required)

	fitIndex := 0
	for i := 0; i < len(u) && fitIndex < len(r); i++ {
		if r[fitIndex].Quota <= u[i].Quota {
			fitIndex++
		}
	}
	return fitIndex == len(r)
}
