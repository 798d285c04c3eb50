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

// Package config holds the agent's runtime settings, validated the way the
// teacher's pkg/apis/config/settings.Settings is: a plain struct with
// validator tags, checked once at startup rather than threaded through as
// global flags (spec.md §9 "Global flags: model as a configuration record
// threaded through constructors rather than process-wide mutables").
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AgentSettings are the agent-side configuration flags from spec.md §6.
type AgentSettings struct {
	// GCEWorkDir is the root directory for pod work directories
	// (gce_work_dir).
	GCEWorkDir string `validate:"required"`
	// InitdBin is the path to the initd executable (agent_initd_bin).
	InitdBin string `validate:"required"`
	// RPCInitdTimeout is the RPC deadline for heartbeat calls
	// (agent_rpc_initd_timeout, stored here already converted to a
	// time.Duration).
	RPCInitdTimeout time.Duration `validate:"required,gt=0"`
}

// DefaultAgentSettings mirrors the conservative defaults a fresh checkout
// would ship with.
func DefaultAgentSettings() AgentSettings {
	return AgentSettings{
		GCEWorkDir:      "/var/lib/galaxy/agent",
		InitdBin:        "/usr/bin/initd",
		RPCInitdTimeout: 500 * time.Millisecond,
	}
}

var validate = validator.New()

// Validate checks s against its struct tags, crashing the caller's intent
// to start with an actionable error rather than a panic (the teacher's
// settings.go panics on invalid config because it is populated once at
// process start from a ConfigMap; this flag-sourced equivalent returns the
// error instead so cmd/agent can print usage and exit non-zero).
func (s AgentSettings) Validate() error {
	return validate.Struct(s)
}
