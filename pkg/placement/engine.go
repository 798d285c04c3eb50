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

// Package placement implements the placement engine (C4): scale-up,
// scale-down and overload-preemption scheduling turns over a snapshot of
// agent resources and job state. It plays the role scheduler.go's
// Scheduler.Solve plays in the teacher repo, generalized from "fit pods to
// Kubernetes nodes by taint/affinity/topology" to "fit pods to agents by
// production-vs-best-effort capacity, ports, and disk/SSD best-fit".
package placement

import (
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/clustersched/galaxy/pkg/feasibility"
	"github.com/clustersched/galaxy/pkg/metrics"
	"github.com/clustersched/galaxy/pkg/resource"
	"github.com/clustersched/galaxy/pkg/scoring"
)

// FeasibilityFactor controls how many candidate agents a scale-up cell
// collects before scoring (spec.md §6 constants).
const FeasibilityFactor = 2

// Engine owns one generation of agent resources and job overviews. All
// Sync*/UpdateAgent/Schedule* calls are serialized by mu; per spec.md §5 the
// engine holds no locks across its own per-turn computation beyond that —
// callers are expected to serialize Schedule* calls with each other, which
// this single mutex also happens to guarantee defensively.
type Engine struct {
	mu sync.Mutex

	endpoints []string // insertion order, mirrors the last SyncResources call
	resources map[string]*resource.AgentInfo
	overviews map[string]resource.JobOverview
	lastHash  map[string]uint64 // endpoint -> last-seen AgentInfo hash, for change logging

	history *scoring.History
	log     *zap.SugaredLogger
}

// New constructs an empty engine.
func New(log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		resources: map[string]*resource.AgentInfo{},
		overviews: map[string]resource.JobOverview{},
		lastHash:  map[string]uint64{},
		history:   scoring.NewHistory(),
		log:       log,
	}
}

// SyncResources replaces the entire resource snapshot atomically: the prior
// generation is destroyed and the new one installed before the call
// returns, so no concurrent Schedule* call observes a partial snapshot
// (spec.md §3 "Ownership & lifecycle", §5 "Sync* replaces state atomically").
func (e *Engine) SyncResources(agents []*resource.AgentInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]*resource.AgentInfo, len(agents))
	order := make([]string, 0, len(agents))
	nextHash := make(map[string]uint64, len(agents))
	for _, a := range agents {
		clone := a.Clone()
		next[clone.Endpoint] = clone
		order = append(order, clone.Endpoint)

		h, err := hashstructure.Hash(clone, hashstructure.FormatV2, &hashstructure.HashOptions{SlicesAsSets: true})
		if err == nil {
			nextHash[clone.Endpoint] = h
			if prev, ok := e.lastHash[clone.Endpoint]; !ok || prev != h {
				e.log.Debugf("agent %s resources changed", clone.Endpoint)
			}
		}
	}
	e.resources = next
	e.endpoints = order
	e.lastHash = nextHash
}

// SyncJobOverview replaces the entire job-overview generation atomically.
func (e *Engine) SyncJobOverview(jobs []resource.JobOverview) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]resource.JobOverview, len(jobs))
	for _, j := range jobs {
		next[j.JobID] = j
	}
	e.overviews = next
}

// UpdateAgent replaces the matching endpoint's record. Returns 0 if the
// endpoint was already known, 1 if it was unknown (spec.md §6).
func (e *Engine) UpdateAgent(a *resource.AgentInfo) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, found := e.resources[a.Endpoint]
	e.resources[a.Endpoint] = a.Clone()
	if !found {
		e.endpoints = append(e.endpoints, a.Endpoint)
		return 1
	}
	return 0
}

// AgentCount returns the number of agents in the current generation.
func (e *Engine) AgentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.resources)
}

// JobCount returns the number of job overviews in the current generation.
func (e *Engine) JobCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.overviews)
}

// scaleUpCell is the per-job working set for one scale-up turn. It aliases
// the engine's owned agent map only for the duration of a single
// ScheduleScaleUp call — per spec.md §9 "Design Notes", this must never be
// persisted past the call that created it.
type scaleUpCell struct {
	job           *resource.JobInfo
	req           resource.Resource
	podIDs        []string
	feasibleLimit int
	candidates    []*resource.AgentInfo
}

// ScheduleScaleUp runs one scale-up turn over pending (under-replicated)
// jobs and returns the Launch proposals it could place this turn. Fewer
// proposals than pending pod-ids is expected and tolerated by callers
// (spec.md §9 Open Question (c)): remaining pod-ids simply carry over to
// the next turn.
func (e *Engine) ScheduleScaleUp(jobs []*resource.JobInfo) []resource.ScheduleInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. Prioritize: descending priority, stable so ties preserve input order.
	pending := append([]*resource.JobInfo{}, jobs...)
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Desc.Priority > pending[j].Desc.Priority
	})

	// 2. Build cells.
	cells := make([]*scaleUpCell, 0, len(pending))
	totalFeasibleLimit := 0
	for _, job := range pending {
		podIDs := pendingPodIDs(job)
		if len(podIDs) == 0 {
			continue
		}
		c := &scaleUpCell{
			job:           job,
			req:           job.Desc.Pod.AggregateRequirement(),
			podIDs:        podIDs,
			feasibleLimit: FeasibilityFactor * len(podIDs),
		}
		cells = append(cells, c)
		totalFeasibleLimit += c.feasibleLimit
	}
	if len(cells) == 0 {
		return nil
	}

	// 3. Collect agents in the snapshot's insertion order.
	agents := make([]*resource.AgentInfo, 0, len(e.endpoints))
	for _, ep := range e.endpoints {
		if a, ok := e.resources[ep]; ok {
			agents = append(agents, a)
		}
	}

	// 4. Feasibility pass: outer agents, inner cells.
	curFeasibleCount := 0
	for _, a := range agents {
		if curFeasibleCount >= totalFeasibleLimit {
			break
		}
		for _, c := range cells {
			if len(c.candidates) >= c.feasibleLimit {
				continue
			}
			ok, reason := feasibility.Check(a, c.job.Desc.Type, c.req)
			if !ok {
				e.log.Debugf("agent %s rejected for job %s: %s", a.Endpoint, c.job.JobID, reason)
				continue
			}
			c.candidates = append(c.candidates, a)
			curFeasibleCount++
		}
	}

	// 5. Score & propose, per cell in priority order.
	var proposals []resource.ScheduleInfo
	for _, c := range cells {
		scored := scoreAscending(c.candidates, scoring.Load)
		n := len(c.podIDs)
		if len(scored) < n {
			n = len(scored)
		}
		for i := 0; i < n; i++ {
			proposals = append(proposals, resource.ScheduleInfo{
				Endpoint: scored[i].Endpoint,
				PodID:    c.podIDs[i],
				JobID:    c.job.JobID,
				Action:   resource.ActionLaunch,
			})
		}
	}
	metrics.PlacementTurnsTotal.WithLabelValues("scale_up").Inc()
	for _, p := range proposals {
		metrics.ProposalsEmittedTotal.WithLabelValues(p.Action.String()).Inc()
	}
	return proposals
}

// pendingPodIDs returns the pod-ids a job still needs placed: those of its
// JobPod entries whose endpoint is still empty. Replicas that have no JobPod
// entry at all are not counted, and no pod-ids are generated for them.
func pendingPodIDs(job *resource.JobInfo) []string {
	var ids []string
	for _, p := range job.Pods {
		if p.Endpoint == "" {
			ids = append(ids, p.PodID)
		}
	}
	return ids
}

// scoreAscending scores each candidate and returns them ordered ascending
// by score; ties keep first-insertion order (spec.md §4.3 "ascending —
// lowest-loaded wins tie-breaks by first insertion at that key").
func scoreAscending(candidates []*resource.AgentInfo, score func(*resource.AgentInfo) float64) []*resource.AgentInfo {
	type scored struct {
		agent *resource.AgentInfo
		score float64
		seq   int
	}
	items := lo.Map(candidates, func(a *resource.AgentInfo, i int) scored {
		return scored{agent: a, score: score(a), seq: i}
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score < items[j].score
		}
		return items[i].seq < items[j].seq
	})
	return lo.Map(items, func(s scored, _ int) *resource.AgentInfo { return s.agent })
}

// ScheduleScaleDown runs one scale-down turn over reducing (over-replicated)
// jobs and returns Terminate proposals, highest-loaded agent first
// (spec.md §4.4).
func (e *Engine) ScheduleScaleDown(jobs []*resource.JobInfo) []resource.ScheduleInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var proposals []resource.ScheduleInfo
	for _, job := range jobs {
		scaleDownCount := int32(len(job.Pods)) - job.Desc.Replica
		if scaleDownCount <= 0 {
			continue
		}

		type resolved struct {
			pod   resource.JobPod
			agent *resource.AgentInfo
		}
		var candidates []resolved
		for _, p := range job.Pods {
			if p.Endpoint == "" {
				continue
			}
			a, ok := e.resources[p.Endpoint]
			if !ok {
				e.log.Infof("scale-down: pod %s endpoint %s unknown, dropping", p.PodID, p.Endpoint)
				continue
			}
			candidates = append(candidates, resolved{pod: p, agent: a})
		}

		// Score each resolved agent with the negated load and sort ascending,
		// i.e. highest-loaded agents come first (spec.md §4.4).
		sort.SliceStable(candidates, func(i, j int) bool {
			return scoring.Load(candidates[i].agent) > scoring.Load(candidates[j].agent)
		})

		n := int(scaleDownCount)
		if len(candidates) < n {
			n = len(candidates)
		}
		for i := 0; i < n; i++ {
			proposals = append(proposals, resource.ScheduleInfo{
				Endpoint: candidates[i].pod.Endpoint,
				PodID:    candidates[i].pod.PodID,
				JobID:    job.JobID,
				Action:   resource.ActionTerminate,
			})
		}
	}
	metrics.PlacementTurnsTotal.WithLabelValues("scale_down").Inc()
	for _, p := range proposals {
		metrics.ProposalsEmittedTotal.WithLabelValues(p.Action.String()).Inc()
	}
	return proposals
}

// ScheduleAgentOverLoad scans every agent in the current snapshot for
// sustained CPU overload and proposes preempting one best-effort pod per
// overloaded agent, per spec.md §4.5.
func (e *Engine) ScheduleAgentOverLoad() []resource.ScheduleInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var proposals []resource.ScheduleInfo
	for _, ep := range e.endpoints {
		a, ok := e.resources[ep]
		if !ok {
			continue
		}

		if !scoring.Overloaded(a) {
			e.history.Clean(ep)
			continue
		}
		turns := e.history.Push(ep)
		if turns <= scoring.OverloadTurnsThreshold {
			continue
		}

		cpuToBeFreed := scoring.CPUToBeFreed(a)
		if cpuToBeFreed <= 0 {
			continue
		}

		type candidate struct {
			jobID, podID string
			cpuUsed      int32
		}
		var batch []candidate
		for _, pod := range a.Pods {
			ov, ok := e.overviews[pod.JobID]
			if !ok || ov.Type != resource.JobTypeBatch {
				continue
			}
			batch = append(batch, candidate{jobID: pod.JobID, podID: pod.PodID, cpuUsed: pod.ResourceUsed.Millicores})
		}
		sort.SliceStable(batch, func(i, j int) bool { return batch[i].cpuUsed < batch[j].cpuUsed })

		picked, found := lo.Find(batch, func(c candidate) bool { return float64(c.cpuUsed) > cpuToBeFreed })
		if !found {
			e.log.Infof("agent %s overloaded %d turns but no single batch pod covers the deficit", ep, turns)
			continue
		}
		proposals = append(proposals, resource.ScheduleInfo{
			Endpoint: ep,
			PodID:    picked.podID,
			JobID:    picked.jobID,
			Action:   resource.ActionTerminate,
		})
		metrics.OverloadPreemptionsTotal.Inc()
	}
	metrics.PlacementTurnsTotal.WithLabelValues("overload").Inc()
	for _, p := range proposals {
		metrics.ProposalsEmittedTotal.WithLabelValues(p.Action.String()).Inc()
	}
	return proposals
}
