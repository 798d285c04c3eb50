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

package scoring_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clustersched/galaxy/pkg/scoring"
)

var _ = Describe("History", func() {
	It("starts every endpoint at zero", func() {
		h := scoring.NewHistory()
		Expect(h.Check("agent-1")).To(Equal(0))
	})

	It("increments consecutive turns on repeated pushes", func() {
		h := scoring.NewHistory()
		Expect(h.Push("agent-1")).To(Equal(1))
		Expect(h.Push("agent-1")).To(Equal(2))
		Expect(h.Push("agent-1")).To(Equal(3))
		Expect(h.Check("agent-1")).To(Equal(3))
	})

	// S5 / invariant 9 — only more than OverloadTurnsThreshold consecutive
	// turns should cross a caller's preemption gate.
	It("only crosses the preemption gate after more than the threshold", func() {
		h := scoring.NewHistory()
		var turns int
		for i := 0; i < scoring.OverloadTurnsThreshold; i++ {
			turns = h.Push("agent-1")
			Expect(turns > scoring.OverloadTurnsThreshold).To(BeFalse())
		}
		turns = h.Push("agent-1")
		Expect(turns > scoring.OverloadTurnsThreshold).To(BeTrue())
	})

	It("resets an endpoint's streak on Clean", func() {
		h := scoring.NewHistory()
		h.Push("agent-1")
		h.Push("agent-1")
		h.Clean("agent-1")
		Expect(h.Check("agent-1")).To(Equal(0))
		Expect(h.Push("agent-1")).To(Equal(1))
	})

	It("tracks endpoints independently", func() {
		h := scoring.NewHistory()
		h.Push("agent-1")
		h.Push("agent-1")
		h.Push("agent-2")
		Expect(h.Check("agent-1")).To(Equal(2))
		Expect(h.Check("agent-2")).To(Equal(1))
	})
})
