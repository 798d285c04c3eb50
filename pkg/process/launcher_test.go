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

package process_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clustersched/galaxy/pkg/process"
)

func TestProcess(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Process")
}

var _ = Describe("Launcher.Fork", func() {
	It("creates stdout/stderr files under the working directory and runs the command", func() {
		dir := GinkgoT().TempDir()
		l := process.NewLauncher(nil)

		marker := filepath.Join(dir, "ran")
		Expect(l.Fork(dir, "echo hi > "+marker)).To(Succeed())

		Eventually(func() bool {
			_, err := os.Stat(marker)
			return err == nil
		}, 2*time.Second, 10*time.Millisecond).Should(BeTrue())

		Expect(filepath.Join(dir, "stdout")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "stderr")).To(BeAnExistingFile())
	})

	It("truncates a pre-existing stdout file instead of appending", func() {
		dir := GinkgoT().TempDir()
		stdoutPath := filepath.Join(dir, "stdout")
		Expect(os.WriteFile(stdoutPath, []byte("stale output from a previous attempt"), 0644)).To(Succeed())

		l := process.NewLauncher(nil)
		Expect(l.Fork(dir, "true")).To(Succeed())

		Eventually(func() ([]byte, error) {
			return os.ReadFile(stdoutPath)
		}, 2*time.Second, 10*time.Millisecond).Should(BeEmpty())
	})

	It("returns an error when the working directory does not exist", func() {
		l := process.NewLauncher(nil)
		Expect(l.Fork("/nonexistent/path/for/galaxy/tests", "true")).To(HaveOccurred())
	})
})
