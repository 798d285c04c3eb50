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
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// MonitorInterval is the background monitor loop's tick period (spec.md
// §4.6: "every 1 second").
const MonitorInterval = time.Second

// RunMonitor advances every known pod's lifecycle once per MonitorInterval
// until ctx is cancelled. Each tick fans out one goroutine per pod via
// errgroup, so a slow initd health check or task-manager call for one pod
// never delays another pod's tick; per-pod errors are swallowed into a
// single aggregated multierr and logged, never propagated, per spec.md §7
// ("Background loops swallow errors and retry on the next tick"). The loop
// itself never terminates except via ctx (graceful shutdown is a
// spec.md §5 non-goal for the production design, but tests need a way to
// stop it).
func (m *Manager) RunMonitor(ctx context.Context) {
	ticker := time.NewTicker(MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one monitor pass over every known pod.
func (m *Manager) tick(ctx context.Context) {
	g, _ := errgroup.WithContext(ctx)
	var errsMu multierrGuard

	for _, podID := range m.List() {
		podID := podID
		g.Go(func() error {
			if err := m.advance(podID); err != nil {
				errsMu.add(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errsMu.err(); err != nil {
		m.log.Debugw("monitor tick completed with per-pod errors", "error", err)
	}
}

// advance runs the single-pod state machine described in spec.md §4.6:
//
//	Pending ── initd ready & all tasks created ──▶ Deploy
//	Pending ── handler unhealthy ──▶ Pending (no-op)
func (m *Manager) advance(podID string) error {
	m.handlersMu.Lock()
	handler, ok := m.handlers[podID]
	m.handlersMu.Unlock()
	if !ok {
		return nil
	}

	status := handler.GetStatus()

	m.infosMu.Lock()
	info, ok := m.infos[podID]
	if !ok {
		m.infosMu.Unlock()
		return nil
	}
	state := info.State
	m.infosMu.Unlock()

	if status == -1 {
		m.setState(podID, PodPending)
		return nil
	}

	if state != PodPending {
		return nil
	}

	var taskIDs []string
	var firstErr error
	for _, task := range info.Desc.Tasks {
		taskID, err := m.taskMgr.CreateTask(task, info.Port, podID)
		if err != nil {
			firstErr = err
			break
		}
		taskIDs = append(taskIDs, taskID)
	}

	m.infosMu.Lock()
	if cur, ok := m.infos[podID]; ok {
		cur.TasksID = append(cur.TasksID, taskIDs...)
		if firstErr == nil {
			cur.State = PodDeploy
			stateTransitions.WithLabelValues(PodDeploy.String()).Inc()
		}
	}
	m.infosMu.Unlock()

	return firstErr
}

// setState updates podID's state if it is still known; a no-op for a pod
// that was removed between List() and the lock acquisition.
func (m *Manager) setState(podID string, state PodState) {
	m.infosMu.Lock()
	defer m.infosMu.Unlock()
	if info, ok := m.infos[podID]; ok {
		info.State = state
	}
}

// multierrGuard aggregates concurrent per-pod errors behind a mutex; it
// exists only so tick's errgroup fan-out has somewhere safe to collect
// errors it intends to log, never return, mirroring the teacher's use of
// go.uber.org/multierr to combine independent per-item failures
// (scheduler.go's add aggregates per-machine-template errors the same way).
type multierrGuard struct {
	mu      sync.Mutex
	combined error
}

func (g *multierrGuard) add(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.combined = multierr.Append(g.combined, err)
}

func (g *multierrGuard) err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.combined
}
