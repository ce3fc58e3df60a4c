package e2e_test

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	binaryPath     string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "scopefs-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if testCleanup != nil {
		testCleanup()
	}
	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the scopefs server.
type ServerConfig struct {
	Port          int
	Mode          string // explorer, static, spa
	StoragePath   string
	Uploads       bool
	MaxUploadSize int64
	JournalType   string // none, sqlite, postgres
	JournalDSN    string
	Username      string
	Password      string
}

// buildBinary compiles the scopefs binary once per test run.
func buildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		binaryPath = filepath.Join(sharedTempDir, "scopefs")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/scopefs")
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			binaryBuildErr = fmt.Errorf("build binary: %w\nOutput: %s", err, output)
			return
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binary: %v", binaryBuildErr)
	}

	return binaryPath
}

// getProjectRoot walks up from the working directory to go.mod.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a YAML config for cfg and returns its path.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	mode := cfg.Mode
	if mode == "" {
		mode = "explorer"
	}
	journalType := cfg.JournalType
	if journalType == "" {
		journalType = "none"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  host: 127.0.0.1
  port: %d
  mode: %s
  max_upload_size: %d

storage:
  path: "%s"

upload:
  enabled: %t

journal:
  type: %s
  dsn: "%s"
`,
		cfg.Port,
		mode,
		cfg.MaxUploadSize,
		cfg.StoragePath,
		cfg.Uploads,
		journalType,
		cfg.JournalDSN,
	)

	if cfg.Username != "" {
		fmt.Fprintf(&sb, "\nauth:\n  basic:\n    username: %s\n    password: %s\n", cfg.Username, cfg.Password)
	}

	sb.WriteString("\nlog:\n  level: error\n")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// startServer starts the scopefs binary with the given configuration.
// Returns the base URL of the file API, the config path and a cleanup
// function that stops the server.
func startServer(t *testing.T, cfg ServerConfig) (string, string, func()) {
	t.Helper()

	binary := buildBinary(t)
	configPath := createConfigFile(t, cfg)

	cmd := exec.Command(binary, "serve", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Start()
	require.NoError(t, err, "start server")

	baseURL := fmt.Sprintf("http://127.0.0.1:%d/api/v1", cfg.Port)
	waitForServer(t, baseURL, 10*time.Second)

	cleanup := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	}

	return baseURL, configPath, cleanup
}

// runCLI runs the binary with args and returns its stdout.
func runCLI(t *testing.T, args ...string) []byte {
	t.Helper()

	cmd := exec.Command(buildBinary(t), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	require.NoError(t, err, "run %v: %s", args, stderr.String())

	return output
}

// waitForServer polls the server until it responds or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find open port")

	addr := l.Addr().(*net.TCPAddr)
	port := addr.Port

	err = l.Close()
	require.NoError(t, err, "close port")

	return port
}

// writeTree creates files below dir from a path to content map.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}
