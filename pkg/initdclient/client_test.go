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

package initdclient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clustersched/galaxy/pkg/initdclient"
)

func TestInitdClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InitdClient")
}

type scriptedStub struct {
	resp initdclient.HeartBeatResponse
	err  error
}

func (s scriptedStub) AsyncHeartBeat(ctx context.Context, req initdclient.HeartBeatRequest, cb func(initdclient.HeartBeatResponse, error)) {
	cb(s.resp, s.err)
}

var _ = Describe("NewHandler", func() {
	It("picks a port within [PortRangeLow, PortRangeHigh)", func() {
		h := initdclient.NewHandler(func(int) initdclient.Stub { return scriptedStub{} }, time.Second, logr.Discard())
		Expect(h.Port()).To(BeNumerically(">=", initdclient.PortRangeLow))
		Expect(h.Port()).To(BeNumerically("<", initdclient.PortRangeHigh))
	})

	It("starts at StatusUnknown", func() {
		dialCount := 0
		h := initdclient.NewHandler(func(int) initdclient.Stub {
			dialCount++
			return scriptedStub{resp: initdclient.HeartBeatResponse{Failed: true}}
		}, time.Second, logr.Discard())
		Expect(h.GetStatus()).To(Equal(initdclient.StatusUnknown))
		Expect(dialCount).To(Equal(1))
	})
})

var _ = Describe("Handler.GetStatus", func() {
	It("promotes to StatusHealthy on a clean response", func() {
		h := initdclient.NewHandler(func(int) initdclient.Stub {
			return scriptedStub{resp: initdclient.HeartBeatResponse{}}
		}, time.Second, logr.Discard())
		Expect(h.GetStatus()).To(Equal(initdclient.StatusHealthy))
	})

	It("never demotes back to unknown once healthy", func() {
		healthy := true
		h := initdclient.NewHandler(func(int) initdclient.Stub {
			if healthy {
				return scriptedStub{resp: initdclient.HeartBeatResponse{}}
			}
			return scriptedStub{resp: initdclient.HeartBeatResponse{Failed: true}}
		}, time.Second, logr.Discard())

		Expect(h.GetStatus()).To(Equal(initdclient.StatusHealthy))
		healthy = false
		Expect(h.GetStatus()).To(Equal(initdclient.StatusHealthy))
	})

	It("stays unknown on a non-zero error code", func() {
		h := initdclient.NewHandler(func(int) initdclient.Stub {
			return scriptedStub{resp: initdclient.HeartBeatResponse{ErrorCode: 7}}
		}, time.Second, logr.Discard())
		Expect(h.GetStatus()).To(Equal(initdclient.StatusUnknown))
	})

	It("stays unknown on an RPC transport error", func() {
		h := initdclient.NewHandler(func(int) initdclient.Stub {
			return scriptedStub{err: errors.New("connection refused")}
		}, time.Second, logr.Discard())
		Expect(h.GetStatus()).To(Equal(initdclient.StatusUnknown))
	})
})
