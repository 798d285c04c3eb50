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

package main

import (
	"context"
	"fmt"

	"github.com/clustersched/galaxy/pkg/initdclient"
	"github.com/clustersched/galaxy/pkg/resource"
)

// nopDialer and nopTaskManager are placeholders for the external RPC
// transport and task manager (spec.md §1, §6): this binary only
// demonstrates pkg/podagent wiring, it does not ship a wire protocol.

type nopStub struct{ port int }

func (s nopStub) AsyncHeartBeat(ctx context.Context, req initdclient.HeartBeatRequest, cb func(initdclient.HeartBeatResponse, error)) {
	cb(initdclient.HeartBeatResponse{Failed: true}, fmt.Errorf("no transport configured for port %d", s.port))
}

func nopDialer(port int) initdclient.Stub {
	return nopStub{port: port}
}

type nopTaskManager struct{}

func (nopTaskManager) CreateTask(task resource.TaskDescriptor, initdPort int, podID string) (string, error) {
	return "", fmt.Errorf("no task manager configured for pod %s", podID)
}
