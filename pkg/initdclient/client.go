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

// Package initdclient implements the agent-side client contract against
// initd (C5): picking a port, forking the supervisor through a
// process.Launcher, and polling its health over an async heartbeat RPC
// with a single monotonic status_ state machine. The RPC stub itself is an
// external collaborator (spec.md §1, §6) — Stub here is the seam a real
// transport implementation plugs into; the handler only depends on its
// interface.
package initdclient

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/clustersched/galaxy/pkg/process"
)

// Status values. -1 means unknown/never-seen; 0 means healthy. Negative
// handshake errors are never escalated beyond -1 (spec.md §4.7).
const (
	StatusUnknown = -1
	StatusHealthy = 0
)

// PortRangeLow and PortRangeHigh bound the half-open interval initd ports
// are drawn from (spec.md §4.7, §6): [5000, 8000).
const (
	PortRangeLow  = 5000
	PortRangeHigh = 8000
)

// HeartBeatRequest/HeartBeatResponse carry no payload beyond acknowledgement
// for this spec (spec.md §6).
type HeartBeatRequest struct{}

// HeartBeatResponse reports RPC-level failure and an application error
// code; a Failed response or non-zero ErrorCode means "not yet healthy",
// never an escalated error.
type HeartBeatResponse struct {
	Failed    bool
	ErrorCode int32
}

// Stub is the async RPC client against a single initd instance. A real
// implementation dials localhost:<port> over whatever transport/codec the
// deployment chooses (spec.md §1's "Network transport library and protobuf
// codec choice" is explicitly out of scope); this interface is the only
// contract the agent depends on.
type Stub interface {
	// AsyncHeartBeat issues the RPC and invokes cb exactly once, either
	// when the RPC completes or when ctx's deadline/timeout fires. It must
	// not block the caller beyond stub acquisition (spec.md §5).
	AsyncHeartBeat(ctx context.Context, req HeartBeatRequest, cb func(HeartBeatResponse, error))
}

// StubDialer constructs a Stub bound to localhost:<port>. Production code
// supplies a real transport; tests supply a fake.
type StubDialer func(port int) Stub

// Handler is one pod's initd supervisor: the forked child process plus the
// async health-check state machine layered over it. status_ is accessed
// from both the background monitor (reads) and the RPC callback dispatcher
// (writes), so it is held in an atomic cell (spec.md §4.7, §5).
type Handler struct {
	port    int
	status  int32 // atomic; -1 or 0
	dial    StubDialer
	timeout time.Duration
	log     logr.Logger
}

// NewHandler picks a port uniformly from [PortRangeLow, PortRangeHigh) and
// constructs a handler with status_ = -1. timeout is the per-call RPC
// deadline (spec.md §4.7's agent_rpc_initd_timeout flag).
func NewHandler(dial StubDialer, timeout time.Duration, log logr.Logger) *Handler {
	return &Handler{
		port:    PortRangeLow + rand.Intn(PortRangeHigh-PortRangeLow),
		status:  StatusUnknown,
		dial:    dial,
		timeout: timeout,
		log:     log,
	}
}

// Port returns the TCP port this handler's initd was told to bind.
func (h *Handler) Port() int {
	return h.port
}

// Create launches initd via launcher with command
// `sh -c "<initdBin> --port=<port>"`, working directory workDir. Returns
// nil on a successful fork, or the launcher's error.
func (h *Handler) Create(launcher *process.Launcher, podID, workDir, initdBin string) error {
	command := fmt.Sprintf("%s --port=%d", initdBin, h.port)
	return launcher.Fork(workDir, command)
}

// GetStatus schedules an async HeartBeat RPC and returns the *current*
// status_ immediately — it never blocks on the RPC's completion
// (spec.md §4.7). The callback encodes monotonic health promotion: once
// status_ reaches 0 it is never demoted back to -1 by this handler; a
// stuck initd is instead surfaced as the monitor never observing the
// transition in the first place.
func (h *Handler) GetStatus() int {
	stub := h.dial(h.port)
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	stub.AsyncHeartBeat(ctx, HeartBeatRequest{}, func(resp HeartBeatResponse, err error) {
		defer cancel()
		if err != nil || resp.Failed || resp.ErrorCode != 0 {
			// RPCFailure: status_ stays at its last value (spec.md §7).
			h.log.V(1).Info("heartbeat not healthy", "port", h.port, "failed", resp.Failed, "errorCode", resp.ErrorCode, "err", err)
			return
		}
		h.log.V(1).Info("heartbeat healthy", "port", h.port)
		atomic.StoreInt32(&h.status, StatusHealthy)
	})
	return int(atomic.LoadInt32(&h.status))
}
