package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wakectl/internal/registry"

	"github.com/stretchr/testify/require"
)

// FakeService is an HTTP server standing in for a probed service. Its status
// code and response delay can be changed while tests run.
type FakeService struct {
	*httptest.Server

	mu     sync.RWMutex
	status int
	delay  time.Duration
	body   string
	hits   atomic.Int32
}

// NewFakeService starts a fake service answering status on every path
func NewFakeService(t testing.TB, status int) *FakeService {
	t.Helper()

	f := &FakeService{status: status, body: `{"status":"ok","uptime":42}`}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeService) handle(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)

	f.mu.RLock()
	status, delay, body := f.status, f.delay, f.body
	f.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// SetStatus changes the status code returned from now on
func (f *FakeService) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// SetDelay makes every response wait d before answering
func (f *FakeService) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Hits returns the number of requests received
func (f *FakeService) Hits() int {
	return int(f.hits.Load())
}

// ServiceSpec describes one registry entry for BuildRegistry
type ServiceSpec struct {
	Name      string
	URL       string
	DependsOn []string
}

// Spec is shorthand for a ServiceSpec
func Spec(name, url string, deps ...string) ServiceSpec {
	return ServiceSpec{Name: name, URL: url, DependsOn: deps}
}

// RegistryYAML renders a single-environment registry document
func RegistryYAML(env string, specs ...ServiceSpec) string {
	var b strings.Builder
	b.WriteString("services:\n")
	fmt.Fprintf(&b, "  %s:\n", env)
	if len(specs) == 0 {
		b.WriteString("    {}\n")
	}
	for _, s := range specs {
		fmt.Fprintf(&b, "    %s:\n", s.Name)
		fmt.Fprintf(&b, "      url: %q\n", s.URL)
		b.WriteString("      healthPath: /health\n")
		if len(s.DependsOn) > 0 {
			fmt.Fprintf(&b, "      dependsOn: [%s]\n", strings.Join(s.DependsOn, ", "))
		}
	}
	return b.String()
}

// BuildRegistry parses a single-environment registry and fails the test on error
func BuildRegistry(t testing.TB, env string, specs ...ServiceSpec) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadBytes([]byte(RegistryYAML(env, specs...)))
	require.NoError(t, err)
	return reg
}
