package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "fanout.yaml")
}

func TestConfigShow_Defaults(t *testing.T) {
	out, err := run(t, "config", "show", "--config", missingConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "core_threads: 16")
	assert.Contains(t, out, "max_threads: 100")
	assert.Contains(t, out, "saturation_policy: caller-runs")
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := run(t, "config", "validate", "--config", missingConfig(t))
		require.NoError(t, err)
		assert.Contains(t, out, "core=16 max=100")
	})

	t.Run("invalid", func(t *testing.T) {
		path := missingConfig(t)
		require.NoError(t, os.WriteFile(path, []byte("pool:\n  core_threads: 9\n  max_threads: 1\n"), 0o600))
		_, err := run(t, "config", "validate", "--config", path)
		assert.Error(t, err)
	})
}

func TestDemo(t *testing.T) {
	out, err := run(t, "demo", "--unit", "2ms", "--config", missingConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, "COLLECT")
	assert.Contains(t, out, "awesome")
	assert.Contains(t, out, "<empty>")
	assert.Contains(t, out, "propagated")
}

func TestBench(t *testing.T) {
	out, err := run(t, "bench", "-q", "--tasks", "20", "--batches", "2", "--duration", "1ms", "--config", missingConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, "BENCH")
	assert.Contains(t, out, "all 40 tasks returned")
}

func TestBench_RejectsBadFlags(t *testing.T) {
	_, err := run(t, "bench", "--tasks", "0", "--config", missingConfig(t))
	assert.Error(t, err)
}
