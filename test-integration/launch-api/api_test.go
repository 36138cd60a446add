package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/launch-registry-server/internal/api/common"
	v1 "github.com/stacklok/launch-registry-server/internal/api/v1"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/status"
	"github.com/stacklok/launch-registry-server/test-integration/launch-api/helpers"
)

var _ = Describe("API source", func() {
	var (
		tempDir  string
		upstream *helpers.MockLaunchAPI
		server   *helpers.ServerTestHelper
	)

	AfterEach(func() {
		if server != nil {
			Expect(server.StopServer()).To(Succeed())
			server = nil
		}
		if upstream != nil {
			upstream.Close()
			upstream = nil
		}
		cleanupTempDir(tempDir)
	})

	Context("when the upstream serves a launch array", func() {
		BeforeEach(func() {
			tempDir = createTempDir("launch-api-")
			upstream = helpers.NewMockLaunchAPIBuilder().
				WithLaunches(helpers.CreateTestLaunches()).
				Build()

			configPath := helpers.WriteConfigYAML(tempDir, "api",
				map[string]string{"endpoint": upstream.URL}, nil)
			server = helpers.NewServerTestHelper(ctx, configPath)
			Expect(server.StartServer()).To(Succeed())
			server.WaitForServerReady(10 * time.Second)
		})

		It("populates the store before serving", func() {
			var list v1.ListLaunchesResponse
			server.GetJSON("/v1/launches", http.StatusOK, &list)

			Expect(list.TotalCount).To(Equal(5))
			Expect(list.CurrentPage).To(Equal(1))
			Expect(list.TotalPages).To(Equal(1))
			// newest first by default
			Expect(list.Launches[0].Name).To(Equal("Crew-5"))
			Expect(list.Launches[0].Success).To(BeNil())
			Expect(list.Launches[4].Name).To(Equal("FalconSat"))
		})

		It("pages and sorts with a deterministic order", func() {
			var page v1.ListLaunchesResponse
			server.GetJSON("/v1/launches?sortBy=FlightNumber&sortOrder=Asc&page=2&pageSize=2", http.StatusOK, &page)

			Expect(page.TotalCount).To(Equal(5))
			Expect(page.TotalPages).To(Equal(3))
			Expect(page.Launches).To(HaveLen(2))
			Expect(page.Launches[0].FlightNumber).To(Equal(19))
			Expect(page.Launches[1].FlightNumber).To(Equal(94))

			var beyond v1.ListLaunchesResponse
			server.GetJSON("/v1/launches?page=9&pageSize=2", http.StatusOK, &beyond)
			Expect(beyond.Launches).To(BeEmpty())
			Expect(beyond.TotalCount).To(Equal(5))
		})

		It("filters by outcome, date range and search term", func() {
			var successes v1.ListLaunchesResponse
			server.GetJSON("/v1/launches?success=true", http.StatusOK, &successes)
			Expect(successes.TotalCount).To(Equal(3))

			var ranged v1.ListLaunchesResponse
			server.GetJSON("/v1/launches?fromDate=2008-09-28&toDate=2015-04-14", http.StatusOK, &ranged)
			Expect(ranged.TotalCount).To(Equal(2))

			var searched v1.ListLaunchesResponse
			server.GetJSON("/v1/launches?searchTerm=ISS", http.StatusOK, &searched)
			Expect(searched.TotalCount).To(Equal(1))
			Expect(searched.Launches[0].Name).To(Equal("CRS-6"))
		})

		It("returns a single launch and launches on a date", func() {
			var launch v1.LaunchResponse
			server.GetJSON("/v1/launches/5eb87cdeffd86e000604b330", http.StatusOK, &launch)
			Expect(launch.Name).To(Equal("RatSat"))
			Expect(*launch.Success).To(BeTrue())

			var onDate []v1.LaunchResponse
			server.GetJSON("/v1/launches/date/2006-03-24", http.StatusOK, &onDate)
			Expect(onDate).To(HaveLen(1))
			Expect(onDate[0].FlightNumber).To(Equal(1))
		})

		It("maps errors onto status codes", func() {
			var notFound common.ErrorResponse
			server.GetJSON("/v1/launches/does-not-exist", http.StatusNotFound, &notFound)
			Expect(notFound.Code).To(Equal(service.KindNotFound))

			var invalid common.ErrorResponse
			server.GetJSON("/v1/launches?pageSize=500", http.StatusBadRequest, &invalid)
			Expect(invalid.Code).To(Equal(service.KindValidation))

			server.GetJSON("/v1/launches/date/24-03-2006", http.StatusBadRequest, nil)
		})

		It("picks up upstream changes on a manual sync", func() {
			launches := helpers.CreateTestLaunches()
			launches[4].Success = new(bool)
			*launches[4].Success = true
			upstream.SetLaunches(launches)

			resp, err := server.Post("/v1/sync")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Body.Close()).To(Succeed())

			var crew v1.LaunchResponse
			server.GetJSON("/v1/launches/62dd70d5202306255024d139", http.StatusOK, &crew)
			Expect(crew.Success).NotTo(BeNil())
			Expect(*crew.Success).To(BeTrue())

			var syncStatus status.SyncStatus
			server.GetJSON("/v1/sync/status", http.StatusOK, &syncStatus)
			Expect(syncStatus.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(syncStatus.LaunchCount).To(Equal(5))
			Expect(syncStatus.LastSyncHash).To(HaveLen(64))
		})
	})

	Context("when the upstream wraps launches in an envelope", func() {
		BeforeEach(func() {
			tempDir = createTempDir("launch-api-envelope-")
			upstream = helpers.NewMockLaunchAPIBuilder().
				WithLaunches(helpers.CreateTestLaunches()).
				WithEnvelope("docs").
				Build()

			configPath := helpers.WriteConfigYAML(tempDir, "api",
				map[string]string{"endpoint": upstream.URL, "resultPath": "docs"}, nil)
			server = helpers.NewServerTestHelper(ctx, configPath)
			Expect(server.StartServer()).To(Succeed())
			server.WaitForServerReady(10 * time.Second)
		})

		It("reads the launches at the result path", func() {
			var list v1.ListLaunchesResponse
			server.GetJSON("/v1/launches", http.StatusOK, &list)
			Expect(list.TotalCount).To(Equal(5))
		})
	})

	Context("when the upstream is failing", func() {
		BeforeEach(func() {
			tempDir = createTempDir("launch-api-failing-")
			upstream = helpers.NewMockLaunchAPIBuilder().
				WithLaunches(helpers.CreateTestLaunches()).
				WithFailingStatus(http.StatusServiceUnavailable).
				Build()

			configPath := helpers.WriteConfigYAML(tempDir, "api",
				map[string]string{"endpoint": upstream.URL}, nil)
			server = helpers.NewServerTestHelper(ctx, configPath)
			Expect(server.StartServer()).To(Succeed())
			server.WaitForServerReady(10 * time.Second)
		})

		It("keeps serving and recovers on a later sync", func() {
			var empty v1.ListLaunchesResponse
			server.GetJSON("/v1/launches", http.StatusOK, &empty)
			Expect(empty.TotalCount).To(BeZero())

			Eventually(func(g Gomega) {
				var syncStatus status.SyncStatus
				server.GetJSON("/v1/sync/status", http.StatusOK, &syncStatus)
				g.Expect(syncStatus.Phase).To(Equal(status.SyncPhaseFailed))
				g.Expect(syncStatus.AttemptCount).To(BeNumerically(">=", 1))
			}, 5*time.Second, 100*time.Millisecond).Should(Succeed())

			upstream.Recover()

			Eventually(func(g Gomega) {
				resp, err := server.Post("/v1/sync")
				g.Expect(err).NotTo(HaveOccurred())
				_ = resp.Body.Close()
				g.Expect(resp.StatusCode).To(Equal(http.StatusOK))
			}, 5*time.Second, 200*time.Millisecond).Should(Succeed())

			var list v1.ListLaunchesResponse
			server.GetJSON("/v1/launches", http.StatusOK, &list)
			Expect(list.TotalCount).To(Equal(5))
			Expect(upstream.Requests()).To(BeNumerically(">=", 5))
		})
	})
})
