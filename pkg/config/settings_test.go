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

package config_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clustersched/galaxy/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config")
}

var _ = Describe("AgentSettings", func() {
	It("accepts the documented defaults", func() {
		Expect(config.DefaultAgentSettings().Validate()).To(Succeed())
	})

	It("rejects an empty work directory", func() {
		s := config.DefaultAgentSettings()
		s.GCEWorkDir = ""
		Expect(s.Validate()).To(HaveOccurred())
	})

	It("rejects an empty initd binary path", func() {
		s := config.DefaultAgentSettings()
		s.InitdBin = ""
		Expect(s.Validate()).To(HaveOccurred())
	})

	It("rejects a non-positive RPC timeout", func() {
		s := config.DefaultAgentSettings()
		s.RPCInitdTimeout = 0
		Expect(s.Validate()).To(HaveOccurred())

		s.RPCInitdTimeout = -1 * time.Second
		Expect(s.Validate()).To(HaveOccurred())
	})
})
