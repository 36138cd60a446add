package integration

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/stacklok/launch-registry-server/internal/api/v1"
	"github.com/stacklok/launch-registry-server/internal/status"
	"github.com/stacklok/launch-registry-server/test-integration/launch-api/helpers"
)

var _ = Describe("File source", func() {
	var (
		tempDir    string
		launchFile string
		server     *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("launch-file-")
		launchFile = filepath.Join(tempDir, "launches.json")
		Expect(os.WriteFile(launchFile, helpers.LaunchesJSON(helpers.CreateTestLaunches()[:2]), 0600)).To(Succeed())

		configPath := helpers.WriteConfigYAML(tempDir, "file", map[string]string{"path": launchFile}, nil)
		server = helpers.NewServerTestHelper(ctx, configPath)
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(server.StopServer()).To(Succeed())
		cleanupTempDir(tempDir)
	})

	It("serves the launches in the file", func() {
		var list v1.ListLaunchesResponse
		server.GetJSON("/v1/launches?sortBy=Name&sortOrder=Asc", http.StatusOK, &list)
		Expect(list.TotalCount).To(Equal(2))
		Expect(list.Launches[0].Name).To(Equal("FalconSat"))
		Expect(list.Launches[1].Name).To(Equal("RatSat"))
	})

	It("adds new launches without losing existing ones", func() {
		Expect(os.WriteFile(launchFile, helpers.LaunchesJSON(helpers.CreateTestLaunches()[2:]), 0600)).To(Succeed())

		resp, err := server.Post("/v1/sync")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Body.Close()).To(Succeed())

		var list v1.ListLaunchesResponse
		server.GetJSON("/v1/launches", http.StatusOK, &list)
		Expect(list.TotalCount).To(Equal(5))
	})

	It("records a failed sync when the file turns invalid and keeps the data", func() {
		Expect(os.WriteFile(launchFile, []byte(`{"launches": "nope"}`), 0600)).To(Succeed())

		resp, err := server.Post("/v1/sync")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(resp.Body.Close()).To(Succeed())

		var syncStatus status.SyncStatus
		server.GetJSON("/v1/sync/status", http.StatusOK, &syncStatus)
		Expect(syncStatus.Phase).To(Equal(status.SyncPhaseFailed))
		Expect(syncStatus.Trigger).To(Equal(status.TriggerManual))

		var list v1.ListLaunchesResponse
		server.GetJSON("/v1/launches", http.StatusOK, &list)
		Expect(list.TotalCount).To(Equal(2))
	})
})
