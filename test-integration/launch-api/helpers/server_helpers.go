package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/onsi/gomega"

	registryapp "github.com/stacklok/launch-registry-server/internal/app"
	"github.com/stacklok/launch-registry-server/internal/config"
)

// ServerTestHelper manages the launch registry server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *registryapp.RegistryApp
	errChan    chan error
}

// NewServerTestHelper creates a helper serving on a free local port
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	port := FreePort()
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    fmt.Sprintf("127.0.0.1:%d", port),
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		errChan:    make(chan error, 1),
	}
}

// FreePort asks the kernel for an unused TCP port
func FreePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

// StartServer builds the application from the config file and starts it in the background
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := registryapp.NewRegistryApp(s.ctx,
		registryapp.WithConfig(cfg),
		registryapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		s.errChan <- app.Start()
	}()
	return nil
}

// StopServer gracefully stops the server
func (s *ServerTestHelper) StopServer() error {
	if s.app == nil {
		return nil
	}
	return s.app.Stop(5 * time.Second)
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		select {
		case err := <-s.errChan:
			return gomega.StopTrying("server exited").Wrap(err)
		default:
		}
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Get makes a GET request to path
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// Post makes an empty POST request to path
func (s *ServerTestHelper) Post(path string) (*http.Response, error) {
	return s.httpClient.Post(s.baseURL+path, "application/json", nil)
}

// GetJSON issues a GET, checks the status and decodes the body into out
func (s *ServerTestHelper) GetJSON(path string, wantStatus int, out any) {
	resp, err := s.Get(path)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(wantStatus), "GET %s", path)
	if out != nil {
		gomega.Expect(json.NewDecoder(resp.Body).Decode(out)).To(gomega.Succeed())
	}
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

// FilterOptions holds optional filter configuration for WriteConfigYAML
type FilterOptions struct {
	NameInclude []string
	NameExclude []string
	Outcomes    []string
}

// WriteConfigYAML writes a configuration storing launches in dir. sourceConfig
// keys are copied under the source section; "syncInterval" sets sync.interval.
func WriteConfigYAML(dir, sourceType string, sourceConfig map[string]string, filterOpts *FilterOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "source:\n  type: %s\n  %s:\n", sourceType, sourceType)
	for _, key := range []string{"endpoint", "resultPath", "path", "repository", "branch"} {
		if v, ok := sourceConfig[key]; ok {
			fmt.Fprintf(&b, "    %s: %q\n", key, v)
		}
	}

	interval := "1h"
	if v, ok := sourceConfig["syncInterval"]; ok {
		interval = v
	}
	fmt.Fprintf(&b, "\nsync:\n  interval: %s\n  statusPath: %s\n", interval, filepath.Join(dir, "status.json"))
	fmt.Fprintf(&b, "\nstorage:\n  type: sqlite\n  sqlite:\n    path: %s\n", filepath.Join(dir, "launches.db"))

	// fast retries keep failure scenarios short
	b.WriteString(`
resilience:
  http:
    timeout: 5s
    maxRetries: 1
    baseDelay: 10ms
    maxDelay: 20ms
    breaker:
      failureRatio: 0.5
      minimumThroughput: 100
      samplingDuration: 1s
      breakDuration: 100ms
  sync:
    baseDelay: 10ms
    maxDelay: 20ms
`)

	if filterOpts != nil {
		b.WriteString("\nfilter:\n")
		if len(filterOpts.NameInclude) > 0 || len(filterOpts.NameExclude) > 0 {
			b.WriteString("  names:\n")
			writeList(&b, "    include", filterOpts.NameInclude)
			writeList(&b, "    exclude", filterOpts.NameExclude)
		}
		writeList(&b, "  outcomes", filterOpts.Outcomes)
	}

	configPath := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(configPath, []byte(b.String()), 0600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return configPath
}

func writeList(b *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", key)
	for _, v := range values {
		fmt.Fprintf(b, "%s  - %q\n", strings.Repeat(" ", len(key)-len(strings.TrimLeft(key, " "))), v)
	}
}
