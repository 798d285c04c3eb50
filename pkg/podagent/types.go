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

// Package podagent implements the agent-side pod manager (C6): accepting
// pod descriptors, forking an initd supervisor per pod, and driving each
// pod's lifecycle state through a background monitor loop that talks to
// initd via pkg/initdclient and to an external task manager.
package podagent

import (
	"errors"

	"github.com/clustersched/galaxy/pkg/resource"
)

// PodState is the pod manager's lifecycle state for one pod (spec.md §4.6).
type PodState int32

const (
	PodPending PodState = iota
	PodDeploy
	PodRunning
	PodTerminated
)

func (s PodState) String() string {
	switch s {
	case PodPending:
		return "Pending"
	case PodDeploy:
		return "Deploy"
	case PodRunning:
		return "Running"
	case PodTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// PodInfo is the agent's lifecycle record for one pod.
type PodInfo struct {
	PodID   string
	Desc    resource.PodDescriptor
	Port    int
	State   PodState
	TasksID []string
}

// ErrNotFound is returned by Query for an unknown pod-id (spec.md §7).
var ErrNotFound = errors.New("podagent: pod not found")

// ErrFilesystemExists names the condition of a pod's work directory already
// existing (spec.md §7 "FilesystemExists"). Run treats that condition as
// success and logs it, so this value is never returned.
var ErrFilesystemExists = errors.New("podagent: work directory already exists")

// TaskManager is the external collaborator that turns a task descriptor
// into a running task inside initd once it is healthy (spec.md §1: "task
// execution detail inside initd... [is] out of scope", only the call
// contract is specified here).
type TaskManager interface {
	// CreateTask asks initd (reached at initdPort, for podID) to start task,
	// returning the task-id initd assigned it.
	CreateTask(task resource.TaskDescriptor, initdPort int, podID string) (taskID string, err error)
}
