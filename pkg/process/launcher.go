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

// Package process implements the fork/exec primitive (C7) the agent uses
// to launch initd: prepare a working directory and redirected stdio, fork,
// and exec "sh -c <command>" in the child with a fresh process group and a
// clean fd table. spec.md §9 models this as an abstract ChildProcess
// capability on platforms without fork/exec; Launcher is that capability,
// implemented with os/exec's SysProcAttr so the same Launcher value works
// whether or not the caller can literally call fork(2).
package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
)

// Launcher spawns child processes with their own process group and
// redirected stdio, closing every other inherited descriptor.
type Launcher struct {
	log *zap.SugaredLogger
}

// NewLauncher constructs a Launcher. A nil logger is replaced with a no-op
// one so callers in tests don't need to thread one through.
func NewLauncher(log *zap.SugaredLogger) *Launcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Launcher{log: log}
}

// Fork launches command via `/bin/sh -c command` with workDir as its
// working directory, stdout/stderr redirected to files under workDir
// (spec.md §6 filesystem layout), a new process group, and an empty
// environment. It implements the four steps of spec.md §4.8:
//  1. prepare stdout/stderr files (closing anything already opened on
//     failure);
//  2. fork (os/exec does this for us via Start, with SysProcAttr
//     controlling the child's process group);
//  3. the child execs /bin/sh with no inherited fds beyond the prepared
//     stdout/stderr pair;
//  4. the parent closes its copies of the prepared fds once the child has
//     dup'd them.
//
// Supplemented from original_source (§4 of SPEC_FULL): a stdout/stderr file
// left over from a previous crashed attempt at the same pod is truncated,
// not appended to.
func (l *Launcher) Fork(workDir, command string) error {
	stdout, err := os.OpenFile(filepath.Join(workDir, "stdout"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening stdout file: %w", err)
	}
	stderr, err := os.OpenFile(filepath.Join(workDir, "stderr"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		stdout.Close()
		return fmt.Errorf("opening stderr file: %w", err)
	}
	// The parent's copies are closed once exec.Cmd has dup'd them into the
	// child (Start returns once fork succeeds); the child keeps its own.
	defer stdout.Close()
	defer stderr.Close()

	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = []string{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = nil
	// New process group so the agent's own signal handling never reaches
	// the supervisor it just forked.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		l.log.Warnw("fork failed", "workDir", workDir, "command", command, "error", err)
		return fmt.Errorf("forking %q: %w", command, err)
	}
	// We do not wait for the child: initd is a long-running supervisor the
	// agent tracks by port/health, not by process exit.
	go func() {
		if err := cmd.Wait(); err != nil {
			l.log.Debugw("initd child exited", "workDir", workDir, "error", err)
		}
	}()
	l.log.Infow("forked initd", "workDir", workDir, "pid", cmd.Process.Pid)
	return nil
}
