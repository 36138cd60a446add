package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/stacklok/launch-registry-server/internal/api/v1"
	"github.com/stacklok/launch-registry-server/test-integration/launch-api/helpers"
)

var _ = Describe("Launch filtering", func() {
	var (
		tempDir  string
		upstream *helpers.MockLaunchAPI
		server   *helpers.ServerTestHelper
	)

	startWithFilter := func(filter *helpers.FilterOptions) {
		tempDir = createTempDir("launch-filter-")
		upstream = helpers.NewMockLaunchAPIBuilder().WithLaunches(helpers.CreateTestLaunches()).Build()

		configPath := helpers.WriteConfigYAML(tempDir, "api", map[string]string{"endpoint": upstream.URL}, filter)
		server = helpers.NewServerTestHelper(ctx, configPath)
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)
	}

	names := func() []string {
		var list v1.ListLaunchesResponse
		server.GetJSON("/v1/launches?sortBy=FlightNumber&sortOrder=Asc", http.StatusOK, &list)
		out := make([]string, 0, len(list.Launches))
		for _, l := range list.Launches {
			out = append(out, l.Name)
		}
		return out
	}

	AfterEach(func() {
		Expect(server.StopServer()).To(Succeed())
		upstream.Close()
		cleanupTempDir(tempDir)
	})

	It("stores only launches matching the include patterns", func() {
		startWithFilter(&helpers.FilterOptions{NameInclude: []string{"CRS-*", "Starlink*"}})
		Expect(names()).To(Equal([]string{"CRS-6", "Starlink-12 (v1.0)"}))
	})

	It("lets exclude patterns win", func() {
		startWithFilter(&helpers.FilterOptions{
			NameInclude: []string{"*Sat"},
			NameExclude: []string{"Falcon*"},
		})
		Expect(names()).To(Equal([]string{"RatSat"}))
	})

	It("filters by outcome", func() {
		startWithFilter(&helpers.FilterOptions{Outcomes: []string{"failure", "unknown"}})
		Expect(names()).To(Equal([]string{"FalconSat", "Crew-5"}))
	})
})
