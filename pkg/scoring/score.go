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

// Package scoring implements the load scorer (C3) used to rank candidate
// agents during placement, and the CPU-overload debounce history consulted
// before the engine proposes a preemption.
package scoring

import (
	"math"

	"github.com/clustersched/galaxy/pkg/resource"
)

const (
	// CPUUsedFactor weights millicore utilization in the load score.
	CPUUsedFactor = 10.0
	// MemUsedFactor weights memory utilization in the load score.
	MemUsedFactor = 1.0
	// ProdCountFactor dampens the contribution of resident-pod count.
	ProdCountFactor = 32.0
	// CPUOverloadThreshold is the fraction of total millicores above which
	// an agent is considered overloaded.
	CPUOverloadThreshold = 0.9
	// OverloadTurnsThreshold: an agent must show overload on more than this
	// many consecutive scheduling turns before preemption is proposed.
	OverloadTurnsThreshold = 3
)

// Load computes the scalar load score: exp(cpu_load) + exp(mem_load) +
// exp(prod_load). Lower is better; scale-up picks ascending, scale-down
// negates it to pick descending (spec.md §4.2–§4.4).
func Load(a *resource.AgentInfo) float64 {
	cpuLoad := float64(a.Used.Millicores) * CPUUsedFactor / float64(a.Total.Millicores)
	memLoad := float64(a.Used.Memory) * MemUsedFactor / float64(a.Total.Memory)
	prodLoad := float64(len(a.Pods)) / ProdCountFactor
	return math.Exp(cpuLoad) + math.Exp(memLoad) + math.Exp(prodLoad)
}

// Overloaded reports whether an agent's CPU utilization exceeds the
// overload threshold.
func Overloaded(a *resource.AgentInfo) bool {
	return float64(a.Used.Millicores)/float64(a.Total.Millicores) > CPUOverloadThreshold
}

// CPUToBeFreed returns the millicores an overloaded agent must shed to fall
// back to the threshold, or a non-positive number if it is not actually
// over (callers should skip preemption in that case per spec.md §4.5).
func CPUToBeFreed(a *resource.AgentInfo) float64 {
	ratio := float64(a.Used.Millicores)/float64(a.Total.Millicores) - CPUOverloadThreshold
	return ratio * float64(a.Total.Millicores)
}
