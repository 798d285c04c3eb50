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

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clustersched/galaxy/pkg/initdclient"
	"github.com/clustersched/galaxy/pkg/resource"
)

// Specs in this file register onto the same suite TestPodAgent (in
// manager_test.go) runs; both internal and external test files in this
// package share one Ginkgo suite per spec.md's test-tooling convention.

type fixedStub struct {
	failed    bool
	errorCode int32
}

func (s fixedStub) AsyncHeartBeat(ctx context.Context, req initdclient.HeartBeatRequest, cb func(initdclient.HeartBeatResponse, error)) {
	cb(initdclient.HeartBeatResponse{Failed: s.failed, ErrorCode: s.errorCode}, nil)
}

type countingTaskManager struct {
	calls int
	err   error
}

func (c *countingTaskManager) CreateTask(task resource.TaskDescriptor, initdPort int, podID string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "task", nil
}

// S6 — a pod whose initd handler reports healthy and whose tasks all
// create successfully advances from Pending to Deploy on the next tick.
var _ = Describe("advance", func() {
	It("moves Pending to Deploy once initd is healthy and tasks are created", func() {
		mgr := NewManager(GinkgoT().TempDir(), "true", time.Second, func(int) initdclient.Stub { return fixedStub{} }, &countingTaskManager{}, nil, logr.Discard())
		mgr.infos["pod-1"] = &PodInfo{PodID: "pod-1", State: PodPending, Desc: resource.PodDescriptor{
			Tasks: []resource.TaskDescriptor{{Requirement: resource.Resource{Millicores: 1}}},
		}}
		mgr.handlers["pod-1"] = initdclient.NewHandler(func(int) initdclient.Stub { return fixedStub{} }, time.Second, logr.Discard())
		// the fake stub's callback runs synchronously, so one GetStatus call
		// is enough to promote the handler to healthy before advance runs.
		mgr.handlers["pod-1"].GetStatus()

		Expect(mgr.advance("pod-1")).To(Succeed())

		info, err := mgr.Query("pod-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.State).To(Equal(PodDeploy))
		Expect(info.TasksID).To(ConsistOf("task"))
	})

	It("stays Pending while initd has not reported healthy", func() {
		mgr := NewManager(GinkgoT().TempDir(), "true", time.Second, func(int) initdclient.Stub { return fixedStub{failed: true} }, &countingTaskManager{}, nil, logr.Discard())
		mgr.infos["pod-1"] = &PodInfo{PodID: "pod-1", State: PodPending}
		mgr.handlers["pod-1"] = initdclient.NewHandler(func(int) initdclient.Stub { return fixedStub{failed: true} }, time.Second, logr.Discard())

		Expect(mgr.advance("pod-1")).To(Succeed())

		info, err := mgr.Query("pod-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.State).To(Equal(PodPending))
	})

	It("stops creating tasks after the first failure and reports the error", func() {
		tm := &countingTaskManager{err: errors.New("boom")}
		mgr := NewManager(GinkgoT().TempDir(), "true", time.Second, func(int) initdclient.Stub { return fixedStub{} }, tm, nil, logr.Discard())
		mgr.infos["pod-1"] = &PodInfo{PodID: "pod-1", State: PodPending, Desc: resource.PodDescriptor{
			Tasks: []resource.TaskDescriptor{{}, {}},
		}}
		mgr.handlers["pod-1"] = initdclient.NewHandler(func(int) initdclient.Stub { return fixedStub{} }, time.Second, logr.Discard())
		mgr.handlers["pod-1"].GetStatus()

		err := mgr.advance("pod-1")
		Expect(err).To(HaveOccurred())
		Expect(tm.calls).To(Equal(1))

		info, _ := mgr.Query("pod-1")
		Expect(info.State).To(Equal(PodPending))
	})

	It("is a no-op for a pod with no handler", func() {
		mgr := NewManager(GinkgoT().TempDir(), "true", time.Second, func(int) initdclient.Stub { return fixedStub{} }, &countingTaskManager{}, nil, logr.Discard())
		Expect(mgr.advance("ghost")).To(Succeed())
	})
})

var _ = Describe("multierrGuard", func() {
	It("aggregates concurrent errors", func() {
		var g multierrGuard
		g.add(errors.New("a"))
		g.add(errors.New("b"))
		Expect(g.err()).To(HaveOccurred())
		Expect(g.err().Error()).To(ContainSubstring("a"))
		Expect(g.err().Error()).To(ContainSubstring("b"))
	})
})
