package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run 执行一次命令，日志只输出错误，避免读取工作目录下的 .env
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IDGEN_LOG_LEVEL", "error")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestNext(t *testing.T) {
	t.Setenv("IDGEN_GENERATOR_DATACENTER_ID", "2")
	t.Setenv("IDGEN_GENERATOR_WORKER_ID", "6")

	out, err := run(t, "next", "-n", "5")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 5)

	prev := int64(0)
	for _, line := range lines {
		id, err := strconv.ParseInt(line, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}

	// 用相同配置解析
	out, err = run(t, "parse", lines[0])
	require.NoError(t, err)

	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, lines[0], view["id"])
	assert.EqualValues(t, 2, view["datacenter_id"])
	assert.EqualValues(t, 6, view["worker_id"])
	assert.True(t, strings.HasPrefix(view["hex"].(string), "0x"))
}

func TestNext_InvalidCount(t *testing.T) {
	for _, n := range []string{"0", "-3", "100001"} {
		t.Run(n, func(t *testing.T) {
			_, err := run(t, "next", "-n", n)
			assert.Error(t, err)
		})
	}
}

func TestNext_InvalidIdentity(t *testing.T) {
	t.Setenv("IDGEN_GENERATOR_WORKER_ID", "32")

	_, err := run(t, "next")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator.worker_id")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"缺少参数", []string{"parse"}},
		{"非数字", []string{"parse", "snowflake"}},
		{"零", []string{"parse", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generator:
  datacenter_bits: 0
  worker_bits: 10
  sequence_bits: 12
  epoch: "2024-01-01T00:00:00Z"
`), 0o600))

	out, err := run(t, "--config", path, "layout")
	require.NoError(t, err)

	var view layoutView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "41/0/10/12", view.Layout)
	assert.EqualValues(t, 41, view.TimestampBits)
	assert.EqualValues(t, 1, view.MaxDatacenters)
	assert.EqualValues(t, 1024, view.MaxWorkers)
	assert.EqualValues(t, 4096, view.IDsPerMillisecond)
	assert.Equal(t, "2024-01-01T00:00:00Z", view.Epoch)
	assert.True(t, strings.HasPrefix(view.ExhaustedAt, "2093-"), view.ExhaustedAt)
}

func TestEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("IDGEN_GENERATOR_WORKER_ID=99\n"), 0o600))
	t.Setenv("IDGEN_LOG_LEVEL", "error")
	// godotenv 不覆盖已有变量，测试结束时恢复
	t.Setenv("IDGEN_GENERATOR_WORKER_ID", "")
	require.NoError(t, os.Unsetenv("IDGEN_GENERATOR_WORKER_ID"))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", envFile, "next"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator.worker_id")
}

func TestServe_InvalidConfig(t *testing.T) {
	t.Setenv("IDGEN_HTTP_MAX_BATCH", "0")

	_, err := run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.max_batch")
}
