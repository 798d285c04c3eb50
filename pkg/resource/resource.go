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

// Package resource defines the typed value objects shared by the placement
// engine and the pod agent: capacity and usage vectors, volumes, pods, tasks
// and jobs, and the scheduling proposals produced against them.
package resource

import "sort"

// Volume is a single disk or SSD extent offered or required by a pod.
type Volume struct {
	Quota int64
	// Path or device id; optional, informational only to this module.
	ID string
}

// Resource is a multi-dimensional capacity or usage vector: CPU in
// millicores, memory in bytes, a set of TCP ports, and ordered disk/SSD
// volumes.
type Resource struct {
	Millicores int32
	Memory     int64
	Ports      map[int32]struct{}
	Disks      []Volume
	SSDs       []Volume
}

// NewResource returns a zero-valued Resource with initialized collections.
func NewResource() Resource {
	return Resource{Ports: map[int32]struct{}{}}
}

// Clone returns a deep copy so callers can mutate without aliasing the
// original's maps/slices.
func (r Resource) Clone() Resource {
	out := Resource{
		Millicores: r.Millicores,
		Memory:     r.Memory,
		Ports:      make(map[int32]struct{}, len(r.Ports)),
		Disks:      append([]Volume{}, r.Disks...),
		SSDs:       append([]Volume{}, r.SSDs...),
	}
	for p := range r.Ports {
		out.Ports[p] = struct{}{}
	}
	return out
}

// Add returns r+other without mutating either operand. Ports are unioned;
// volumes are concatenated (callers that need a de-duplicated view should
// sort/merge explicitly — the scheduler only ever sums requirements, which
// are disjoint by construction).
func (r Resource) Add(other Resource) Resource {
	out := r.Clone()
	out.Millicores += other.Millicores
	out.Memory += other.Memory
	for p := range other.Ports {
		out.Ports[p] = struct{}{}
	}
	out.Disks = append(out.Disks, other.Disks...)
	out.SSDs = append(out.SSDs, other.SSDs...)
	return out
}

// HasPort reports whether p is a member of the resource's port set.
func (r Resource) HasPort(p int32) bool {
	_, ok := r.Ports[p]
	return ok
}

// SortedByQuota returns a copy of vols ordered ascending by Quota, leaving
// the input slice untouched.
func SortedByQuota(vols []Volume) []Volume {
	out := append([]Volume{}, vols...)
	sort.Slice(out, func(i, j int) bool { return out[i].Quota < out[j].Quota })
	return out
}

// PodOnAgent records the resources one placed pod currently holds on an
// agent, keyed by the owning job.
type PodOnAgent struct {
	PodID        string
	JobID        string
	ResourceUsed Resource
}

// AgentInfo is the master's view of one fleet machine: its advertised
// total capacity, what is physically used and free, what remains
// unassigned after production reservations, and the pods currently
// running there.
//
// Invariant: Used+Free == Total per scalar dimension; Unassigned <= Free;
// Used.Ports is a subset of Total.Ports. These invariants are the
// responsibility of whoever constructs/mutates an AgentInfo (the master's
// bookkeeping, out of scope here) — this package only reads them.
type AgentInfo struct {
	Endpoint   string
	Total      Resource
	Used       Resource
	Free       Resource
	Unassigned Resource
	Pods       []PodOnAgent
}

// Clone returns a deep copy of the agent record, including its pod list.
func (a *AgentInfo) Clone() *AgentInfo {
	if a == nil {
		return nil
	}
	out := &AgentInfo{
		Endpoint:   a.Endpoint,
		Total:      a.Total.Clone(),
		Used:       a.Used.Clone(),
		Free:       a.Free.Clone(),
		Unassigned: a.Unassigned.Clone(),
		Pods:       append([]PodOnAgent{}, a.Pods...),
	}
	return out
}

// TaskDescriptor is a single task's resource requirement and launch spec.
// The launch spec proper (binary, args, environment) is owned by initd and
// opaque to this module; we keep a free-form field so callers can thread it
// through CreateTask without this package needing to know its shape.
type TaskDescriptor struct {
	Requirement Resource
	LaunchSpec  string
}

// PodDescriptor is the ordered set of tasks that make up one pod.
type PodDescriptor struct {
	Tasks []TaskDescriptor
}

// AggregateRequirement sums every task's requirement into the pod-level
// requirement the feasibility checker evaluates against an agent.
func (p PodDescriptor) AggregateRequirement() Resource {
	agg := NewResource()
	for _, t := range p.Tasks {
		agg = agg.Add(t.Requirement)
	}
	return agg
}

// JobType classifies a job as production (reserved capacity, never
// preempted) or best-effort (opportunistic, preemptible under overload).
type JobType int32

const (
	JobTypeUnknown JobType = iota
	JobTypeLongRun
	JobTypeSystem
	JobTypeBatch
)

// IsProduction reports whether the type reserves capacity against an
// agent's Unassigned bucket rather than its Free bucket.
func (t JobType) IsProduction() bool {
	return t == JobTypeLongRun || t == JobTypeSystem
}

// String renders the job type for logs; unknown types render explicitly so
// a rejected-feasibility log line is self-explanatory.
func (t JobType) String() string {
	switch t {
	case JobTypeLongRun:
		return "LongRun"
	case JobTypeSystem:
		return "System"
	case JobTypeBatch:
		return "Batch"
	default:
		return "Unknown"
	}
}

// JobDesc is the template a job's replicas are stamped from.
type JobDesc struct {
	Priority int32
	Replica  int32
	Type     JobType
	Pod      PodDescriptor
}

// JobPod is one running (or awaiting-placement) replica of a job.
type JobPod struct {
	PodID    string
	Endpoint string // empty until placed
}

// JobInfo is the master's full view of a job and its replicas.
type JobInfo struct {
	JobID string
	Desc  JobDesc
	Pods  []JobPod
}

// JobOverview is the lightweight projection of a JobInfo used by overload
// scans to classify an agent's resident pods without needing the full pod
// descriptor.
type JobOverview struct {
	JobID string
	Type  JobType
}

// Action is the directive a ScheduleInfo carries.
type Action int32

const (
	ActionLaunch Action = iota
	ActionTerminate
)

func (a Action) String() string {
	if a == ActionTerminate {
		return "Terminate"
	}
	return "Launch"
}

// ScheduleInfo is one placement proposal: pair podid+jobid with an agent
// endpoint and a launch/terminate action. The caller owns the returned
// sequence.
type ScheduleInfo struct {
	Endpoint string
	PodID    string
	JobID    string
	Action   Action
}
