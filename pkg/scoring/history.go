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

package scoring

import (
	"github.com/patrickmn/go-cache"
)

// History tracks, per agent endpoint, the number of consecutive scheduling
// turns the agent has been observed overloaded. It is the same
// concurrency-safe get/set/delete map used by pkg/utils/pretty's
// ChangeMonitor in the teacher repo, repurposed here not for its TTL expiry
// (we never want an overload count to silently expire mid-streak — an
// agent that keeps being overloaded should keep accumulating) but for its
// bounded, lock-free-to-callers map semantics. A long no-expiration TTL is
// used and entries are removed explicitly via Clean instead.
type History struct {
	counts *cache.Cache
}

// NewHistory constructs an empty overload history.
func NewHistory() *History {
	return &History{counts: cache.New(cache.NoExpiration, 0)}
}

// Push increments the consecutive-overload counter for endpoint and returns
// the new value.
func (h *History) Push(endpoint string) int {
	if err := h.counts.Increment(endpoint, 1); err == nil {
		v, _ := h.counts.Get(endpoint)
		return v.(int)
	}
	h.counts.Set(endpoint, 1, cache.NoExpiration)
	return 1
}

// Clean removes endpoint's entry entirely — called once an agent is no
// longer observed overloaded.
func (h *History) Clean(endpoint string) {
	h.counts.Delete(endpoint)
}

// Check returns the current consecutive-overload count for endpoint, or 0
// if it has none.
func (h *History) Check(endpoint string) int {
	v, ok := h.counts.Get(endpoint)
	if !ok {
		return 0
	}
	return v.(int)
}
