package bridge

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/graphbridge/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupBridgeTest creates a new bridge with debug logging captured in a
// buffer. Set GRAPHBRIDGE_TEST_LOGS=true to print the log of each test.
func SetupBridgeTest(t *testing.T, cfg *Config, modules ...registry.Module) (*Bridge, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	cfg.LogLevel = "debug"
	b := New(logBuffer, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("GRAPHBRIDGE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return b, logBuffer
}
