package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xipc/pkg/ipc/xnmutex"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		goleak.IgnoreAnyFunction("os/signal.loop"),
		goleak.IgnoreTopFunction("os/signal.signal_recv"),
	)
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xnmutexctl"}, args...), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func testName(t *testing.T) string {
	t.Helper()
	name := "xctl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	t.Cleanup(func() { _ = xnmutex.Remove(name) })
	return name
}

func TestTry_Acquired(t *testing.T) {
	res := runCLI(t, "try", testName(t))
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "acquired\n", res.stdout)
}

func TestTry_Busy(t *testing.T) {
	name := testName(t)
	m, err := xnmutex.Create(name, xnmutex.ModeOpenIfExists)
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Lock())

	res := runCLI(t, "try", name)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "busy\n", res.stdout)

	require.NoError(t, m.Unlock())
	assert.Equal(t, 0, runCLI(t, "try", name).code)
}

func TestHold_For(t *testing.T) {
	name := testName(t)
	res := runCLI(t, "hold", "--for", "50ms", name)
	assert.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "holding "+name+" ("), res.stdout)

	m, err := xnmutex.Create(name, xnmutex.ModeUnique)
	require.NoError(t, err, "name released after hold exits")
	require.NoError(t, m.Close())
}

func TestHold_BusyInProcess(t *testing.T) {
	name := testName(t)
	m, err := xnmutex.Create(name, xnmutex.ModeUnique)
	require.NoError(t, err)
	defer m.Close()

	res := runCLI(t, "hold", "--wait", "--retry-max", "2", "--for", "10ms", name)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "already held by this process")
}

func TestInstance_Fallback(t *testing.T) {
	base := testName(t)
	t.Cleanup(func() { _ = xnmutex.Remove(base + "-1") })
	m, err := xnmutex.Create(base, xnmutex.ModeUnique)
	require.NoError(t, err)
	defer m.Close()

	res := runCLI(t, "instance", "--for", "10ms", base)
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, base+"-1\n", res.stdout)
}

func TestLock_For(t *testing.T) {
	name := testName(t)
	res := runCLI(t, "lock", "--for", "10ms", name)
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "locked "+name)
	assert.Equal(t, 0, runCLI(t, "try", name).code, "lock released on exit")
}

func TestRemove(t *testing.T) {
	res := runCLI(t, "remove", testName(t))
	if res.code == 0 {
		// Windows 上 remove 为空操作。
		assert.Contains(t, res.stdout, "removed")
		return
	}
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "not found")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing name", []string{"try"}},
		{"extra args", []string{"hold", "a", "b"}},
		{"invalid name", []string{"try", "a/b"}},
		{"invalid remove name", []string{"remove", ""}},
		{"unknown flag", []string{"try", "--bogus", "x"}},
		{"bad log level", []string{"--log-level", "loud", "try", "x"}},
		{"negative retry", []string{"hold", "--retry-max=-1", "x"}},
		{"run without command", []string{"run", "x", "--"}},
		{"missing config", []string{"-c", filepath.Join(t.TempDir(), "none.yaml"), "try", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.args...)
			assert.Equal(t, 2, res.code, "stdout=%q stderr=%q", res.stdout, res.stderr)
		})
	}
}

func TestConfigFile_LogsToRotatedFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "ctl.log")
	cfg := filepath.Join(dir, "ctl.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(
		"log:\n  level: debug\n  format: json\n  file: "+logFile+"\n"), 0o600))

	res := runCLI(t, "--config", cfg, "try", testName(t))
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"named mutex created"`)
	assert.Contains(t, string(data), `"pid":`)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "ctl.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"log":{"format":"xml"}}`), 0o600))

	res := runCLI(t, "-c", cfg, "try", "x")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "invalid config")
}

func TestRunCommand_ExitCode(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	name := testName(t)

	res := runCLI(t, "run", name, "--", sh, "-c", "echo child; exit 3")
	assert.Equal(t, 3, res.code, res.stderr)
	assert.Equal(t, "child\n", res.stdout)

	res = runCLI(t, "run", name, "--", sh, "-c", "exit 0")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, 0, runCLI(t, "try", name).code, "lock released after child exits")
}
