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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/zap"

	"github.com/clustersched/galaxy/pkg/initdclient"
	"github.com/clustersched/galaxy/pkg/process"
	"github.com/clustersched/galaxy/pkg/resource"
)

// Manager is the agent-side pod manager. It holds two independent
// mutexes — infosMu for the PodInfo map, handlersMu for the initd handler
// map — so a lookup into one can proceed while the other is held. Whenever
// both are needed, the lock order is infos before handlers (spec.md §5).
type Manager struct {
	workRoot   string
	initdBin   string
	rpcTimeout time.Duration
	dial       initdclient.StubDialer
	launcher   *process.Launcher
	taskMgr    TaskManager

	infosMu sync.Mutex
	infos   map[string]*PodInfo

	handlersMu sync.Mutex
	handlers   map[string]*initdclient.Handler

	log    *zap.SugaredLogger
	logr   logr.Logger
	metric *Metrics
}

// NewManager constructs a pod manager rooted at workRoot, forking initd
// from initdBin and polling it with rpcTimeout per heartbeat.
func NewManager(workRoot, initdBin string, rpcTimeout time.Duration, dial initdclient.StubDialer, taskMgr TaskManager, log *zap.SugaredLogger, lr logr.Logger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		workRoot:   workRoot,
		initdBin:   initdBin,
		rpcTimeout: rpcTimeout,
		dial:       dial,
		launcher:   process.NewLauncher(log),
		taskMgr:    taskMgr,
		infos:      map[string]*PodInfo{},
		handlers:   map[string]*initdclient.Handler{},
		log:        log,
		logr:       lr,
		metric:     newMetrics(),
	}
}

// Run accepts a pod descriptor: idempotent on podID (spec.md §8 property
// 7). It creates the pod's work directory, forks initd on a locally chosen
// port through the process launcher, and records a fresh Pending PodInfo
// plus its initd handler. No partial state is left in either map if the
// fork fails (spec.md §7 ProcessLaunchFailure).
func (m *Manager) Run(podID string, desc resource.PodDescriptor) error {
	m.infosMu.Lock()
	if _, exists := m.infos[podID]; exists {
		m.infosMu.Unlock()
		return nil
	}
	m.infosMu.Unlock()

	workDir, err := m.ensureWorkDir(podID)
	if err != nil {
		return err
	}

	handler := initdclient.NewHandler(m.dial, m.rpcTimeout, m.logr)
	if err := handler.Create(m.launcher, podID, workDir, m.initdBin); err != nil {
		// Supplemented from original_source (SPEC_FULL §4.3): best-effort
		// cleanup of the just-created work directory on launch failure.
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			m.log.Warnw("cleaning up work dir after fork failure", "podID", podID, "error", rmErr)
		}
		m.metric.forkFailures.Inc()
		return fmt.Errorf("launching initd for pod %s: %w", podID, err)
	}

	m.infosMu.Lock()
	m.infos[podID] = &PodInfo{PodID: podID, Desc: desc, Port: handler.Port(), State: PodPending}
	m.infosMu.Unlock()

	m.handlersMu.Lock()
	m.handlers[podID] = handler
	m.handlersMu.Unlock()

	m.log.Infow("pod accepted", "podID", podID, "port", handler.Port())
	m.metric.podsAccepted.Inc()
	return nil
}

// Kill is reserved for a terminate operation; the interface is specified
// but its implementation is delegated to the external task manager and
// initd once those RPCs exist (spec.md §4.6: "currently a stub").
func (m *Manager) Kill(podID string) error {
	m.log.Infow("kill requested (stub)", "podID", podID)
	return nil
}

// Query returns a snapshot of podID's PodInfo, or ErrNotFound.
func (m *Manager) Query(podID string) (PodInfo, error) {
	m.infosMu.Lock()
	defer m.infosMu.Unlock()

	info, ok := m.infos[podID]
	if !ok {
		return PodInfo{}, ErrNotFound
	}
	return *info, nil
}

// List returns every known pod-id.
func (m *Manager) List() []string {
	m.infosMu.Lock()
	defer m.infosMu.Unlock()

	ids := make([]string, 0, len(m.infos))
	for id := range m.infos {
		ids = append(ids, id)
	}
	return ids
}

// ensureWorkDir creates <workRoot>/<podID>, treating an already-exists
// error as success (spec.md §7 FilesystemExists, §4.6).
func (m *Manager) ensureWorkDir(podID string) (string, error) {
	if err := os.MkdirAll(m.workRoot, 0755); err != nil {
		return "", fmt.Errorf("creating work root %s: %w", m.workRoot, err)
	}
	workDir := filepath.Join(m.workRoot, podID)
	if err := os.Mkdir(workDir, 0755); err != nil {
		if os.IsExist(err) {
			m.log.Infow("work dir already exists", "podID", podID, "workDir", workDir)
			return workDir, nil
		}
		return "", fmt.Errorf("creating work dir %s: %w", workDir, err)
	}
	return workDir, nil
}
