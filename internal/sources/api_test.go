package sources_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/launch-registry-server/internal/httpclient"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/sources"
)

const launchesPayload = `[
  {"id": "5eb87cd9ffd86e000604b32a", "flight_number": 1, "name": "FalconSat", "date_utc": "2006-03-24T22:30:00.000Z", "success": false, "details": "Engine failure at 33 seconds"},
  {"id": "5eb87cdeffd86e000604b330", "flight_number": 4, "name": "RatSat", "date_utc": "2008-09-28T23:15:00.000Z", "success": true, "details": null},
  {"id": "5eb87ce2ffd86e000604b337", "flight_number": 187, "name": "Crew-5", "date_utc": "2022-10-05T16:00:00.000Z", "success": null, "details": null}
]`

func fastHTTPPipeline(breaker *resilience.BreakerConfig) *resilience.Pipeline {
	return resilience.New("http", resilience.Config{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Breaker:    breaker,
	})
}

// statusSequence replies with the given statuses in order, then 200 with body
func statusSequence(body string, statuses ...int) (http.HandlerFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}, &calls
}

var _ = Describe("APIFetcher", func() {
	var (
		ctx        context.Context
		mockServer *httptest.Server
		calls      *atomic.Int32
		pipeline   *resilience.Pipeline
	)

	BeforeEach(func() {
		ctx = context.Background()
		pipeline = fastHTTPPipeline(nil)
	})

	AfterEach(func() {
		if mockServer != nil {
			mockServer.Close()
		}
	})

	serve := func(handler http.HandlerFunc) *sources.APIFetcher {
		mockServer = httptest.NewServer(handler)
		mockServer.Config.SetKeepAlivesEnabled(false)
		return sources.NewAPIFetcher(mockServer.URL, httpclient.NewDefaultClient(time.Second), pipeline, nil)
	}

	Describe("Fetch", func() {
		Context("when the upstream answers 200", func() {
			It("decodes every launch and keeps the outcome three-state", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload)
				fetcher := serve(handler)

				res, err := fetcher.Fetch(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(calls.Load()).To(Equal(int32(1)))
				Expect(res.Hash).To(HaveLen(64))
				Expect(res.Launches).To(HaveLen(3))

				Expect(*res.Launches[0].Success).To(BeFalse())
				Expect(res.Launches[0].Details).To(Equal("Engine failure at 33 seconds"))
				Expect(*res.Launches[1].Success).To(BeTrue())
				Expect(res.Launches[1].Details).To(BeEmpty())
				Expect(res.Launches[2].Success).To(BeNil())
				Expect(res.Launches[2].DateUTC).To(Equal(time.Date(2022, 10, 5, 16, 0, 0, 0, time.UTC)))
			})
		})

		Context("when the upstream answers 404", func() {
			It("fails after a single attempt with the status detail", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload, http.StatusNotFound, http.StatusNotFound)
				fetcher := serve(handler)

				_, err := fetcher.Fetch(ctx)
				Expect(err).To(HaveOccurred())
				Expect(calls.Load()).To(Equal(int32(1)))

				var svcErr *service.Error
				Expect(errors.As(err, &svcErr)).To(BeTrue())
				Expect(svcErr.Kind).To(Equal(service.KindHTTP))
				Expect(svcErr.Detail).To(Equal("Status: 404 - Not Found"))
			})
		})

		Context("when the upstream keeps answering 503", func() {
			It("retries up to the limit and reports the last status", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload,
					http.StatusServiceUnavailable, http.StatusServiceUnavailable,
					http.StatusServiceUnavailable, http.StatusServiceUnavailable,
					http.StatusServiceUnavailable)
				fetcher := serve(handler)

				_, err := fetcher.Fetch(ctx)
				Expect(err).To(HaveOccurred())
				Expect(calls.Load()).To(Equal(int32(4)))

				var svcErr *service.Error
				Expect(errors.As(err, &svcErr)).To(BeTrue())
				Expect(svcErr.Kind).To(Equal(service.KindHTTP))
				Expect(svcErr.Detail).To(Equal("Status: 503 - Service Unavailable"))
			})
		})

		Context("when the upstream recovers after transient failures", func() {
			It("returns the payload from the successful attempt", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload,
					http.StatusInternalServerError, http.StatusTooManyRequests)
				fetcher := serve(handler)

				launches, err := fetcher.FetchAll(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(launches).To(HaveLen(3))
				Expect(calls.Load()).To(Equal(int32(3)))
			})
		})

		Context("when the body is empty", func() {
			It("fails with an HTTP error without retrying", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence("  ")
				fetcher := serve(handler)

				_, err := fetcher.Fetch(ctx)
				Expect(service.KindOf(err)).To(Equal(service.KindHTTP))
				Expect(err.Error()).To(ContainSubstring("empty response"))
				Expect(calls.Load()).To(Equal(int32(1)))
			})
		})

		Context("when the body is malformed", func() {
			It("fails with a parse error without retrying", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(`[{"id": "a", "name": `)
				fetcher := serve(handler)

				_, err := fetcher.Fetch(ctx)
				Expect(service.KindOf(err)).To(Equal(service.KindParse))
				Expect(calls.Load()).To(Equal(int32(1)))
			})
		})

		Context("when the launches are wrapped in a query envelope", func() {
			envelope := `{"docs": ` + launchesPayload + `, "totalDocs": 3, "page": 1}`

			It("reads the array at the configured result path", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(envelope)
				mockServer = httptest.NewServer(handler)
				fetcher := sources.NewAPIFetcher(mockServer.URL, httpclient.NewDefaultClient(time.Second),
					pipeline, nil, sources.WithResultPath("docs"))

				res, err := fetcher.Fetch(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Launches).To(HaveLen(3))
				Expect(res.Launches[2].Name).To(Equal("Crew-5"))
			})

			It("fails with a parse error when the path holds no array", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(envelope)
				mockServer = httptest.NewServer(handler)
				fetcher := sources.NewAPIFetcher(mockServer.URL, httpclient.NewDefaultClient(time.Second),
					pipeline, nil, sources.WithResultPath("totalDocs"))

				_, err := fetcher.Fetch(ctx)
				Expect(service.KindOf(err)).To(Equal(service.KindParse))
				Expect(err.Error()).To(ContainSubstring("resultPath totalDocs"))
				Expect(calls.Load()).To(Equal(int32(1)))
			})
		})

		Context("when the circuit is open", func() {
			BeforeEach(func() {
				pipeline = resilience.New("http", resilience.Config{
					Timeout:   5 * time.Second,
					BaseDelay: time.Millisecond,
					MaxDelay:  time.Millisecond,
					Breaker: &resilience.BreakerConfig{
						FailureRatio:      0.5,
						MinimumThroughput: 2,
						SamplingDuration:  time.Minute,
						BreakDuration:     time.Minute,
					},
				})
			})

			It("fails fast without calling the upstream", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload,
					http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway)
				fetcher := serve(handler)

				for range 2 {
					_, err := fetcher.Fetch(ctx)
					Expect(service.KindOf(err)).To(Equal(service.KindHTTP))
				}
				Expect(calls.Load()).To(Equal(int32(2)))

				_, err := fetcher.Fetch(ctx)
				Expect(service.KindOf(err)).To(Equal(service.KindHTTP))
				Expect(errors.Is(err, resilience.ErrCircuitOpen)).To(BeTrue())
				Expect(calls.Load()).To(Equal(int32(2)))
			})

			It("counts terminal responses toward the circuit", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload,
					http.StatusNotFound, http.StatusNotFound, http.StatusNotFound)
				fetcher := serve(handler)

				for range 2 {
					_, err := fetcher.Fetch(ctx)
					Expect(service.KindOf(err)).To(Equal(service.KindHTTP))
					Expect(errors.Is(err, resilience.ErrCircuitOpen)).To(BeFalse())
				}
				Expect(calls.Load()).To(Equal(int32(2)))
				Expect(pipeline.Breaker().State()).To(Equal(resilience.StateOpen))

				_, err := fetcher.Fetch(ctx)
				Expect(errors.Is(err, resilience.ErrCircuitOpen)).To(BeTrue())
				Expect(calls.Load()).To(Equal(int32(2)))
			})
		})

		Context("when the pipeline times out", func() {
			BeforeEach(func() {
				pipeline = resilience.New("http", resilience.Config{
					Timeout:    50 * time.Millisecond,
					MaxRetries: 3,
					BaseDelay:  time.Second,
					MaxDelay:   time.Second,
				})
			})

			It("reports a timeout", func() {
				var handler http.HandlerFunc
				handler, calls = statusSequence(launchesPayload, http.StatusServiceUnavailable)
				fetcher := serve(handler)

				_, err := fetcher.Fetch(ctx)
				Expect(service.KindOf(err)).To(Equal(service.KindTimeout))
				Expect(calls.Load()).To(Equal(int32(1)))
			})
		})
	})
})
