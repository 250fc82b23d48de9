package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overrideVars = []string{
	"SERVER_HOST", "SERVER_PORT", "ALLOWED_ORIGINS",
	"REMOTE_API_BASE_URL", "REMOTE_API_AUTHORIZATION", "REMOTE_API_TIMEOUT",
	"CLUSTER_FALLBACK", "CLUSTER_STRICT",
	"POLL_IDLE_INTERVAL", "POLL_BURST_INTERVAL", "POLL_BURST_WINDOW",
	"DIRECTORY_TTL", "SNS_REGION", "SNS_TOPIC_ARN", "SNS_ENDPOINT",
	"INSTANCE_ID", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range overrideVars {
		t.Setenv(v, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
	assert.Equal(t, 60*time.Second, cfg.Polling.IdleInterval.Std())
	assert.Equal(t, 5*time.Second, cfg.Polling.BurstInterval.Std())
	assert.Equal(t, 2*time.Minute, cfg.Polling.BurstWindow.Std())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Signals.TopicARN)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"server": {"port": 9090, "allowed_origins": ["https://portal.example.edu"]},
		"remote_api": {"base_url": "https://docs.example.edu", "timeout": 12},
		"clusters": {"members": {"VF": ["ACCT", "BUDGET"]}, "fallback_cluster": "VA"},
		"polling": {"idle_interval": "90s", "burst_interval": "3s", "burst_window": "1m", "max_concurrent": 2},
		"logging": {"level": "debug"}
	}`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:123456789012:portal-refresh")
	t.Setenv("POLL_BURST_WINDOW", "45s")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"https://portal.example.edu"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://docs.example.edu", cfg.RemoteAPI.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.RemoteAPI.Timeout.Std())
	assert.Equal(t, 90*time.Second, cfg.Polling.IdleInterval.Std())
	assert.Equal(t, 45*time.Second, cfg.Polling.BurstWindow.Std())
	assert.Equal(t, 2, cfg.Polling.MaxConcurrent)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:portal-refresh", cfg.Signals.TopicARN)

	clusters, err := cfg.Clusters.ClusterMap()
	require.NoError(t, err)
	cluster, err := clusters.Resolve("BUDGET")
	require.NoError(t, err)
	assert.Equal(t, "VF", cluster)
	cluster, err = clusters.Resolve("LIB")
	require.NoError(t, err)
	assert.Equal(t, "VA", cluster)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	clearEnv(t)
	env := writeFile(t, ".env", "REMOTE_API_BASE_URL=https://staging.example.edu\nINSTANCE_ID=portal-2\n")
	// godotenv does not override variables that are already set
	require.NoError(t, os.Unsetenv("REMOTE_API_BASE_URL"))
	require.NoError(t, os.Unsetenv("INSTANCE_ID"))

	cfg, err := LoadConfig("", env, filepath.Join(t.TempDir(), ".env.local"))

	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.edu", cfg.RemoteAPI.BaseURL)
	assert.Equal(t, "portal-2", cfg.InstanceID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad json", file: `{"server": `},
		{name: "bad duration", file: `{"polling": {"idle_interval": "soon"}}`},
		{name: "bad base url", file: `{"remote_api": {"base_url": "docs"}}`},
		{name: "unknown fallback", file: `{"clusters": {"fallback_cluster": "VX"}}`},
		{name: "bad log level", file: `{"logging": {"level": "loud"}}`},
		{name: "burst slower than idle", file: `{"polling": {"idle_interval": "5s", "burst_interval": "10s"}}`},
		{name: "bad topic", file: `{"signals": {"topic_arn": "portal-refresh"}}`},
		{name: "bad port env", file: `{}`, env: map[string]string{"SERVER_PORT": "http"}},
		{name: "bad strict env", file: `{}`, env: map[string]string{"CLUSTER_STRICT": "sometimes"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(writeFile(t, "config.json", tc.file))
			assert.Error(t, err)
		})
	}
}

func TestClustersConfig_DefaultTable(t *testing.T) {
	var c ClustersConfig

	clusters, err := c.ClusterMap()

	require.NoError(t, err)
	cluster, err := clusters.Resolve("ACCT")
	require.NoError(t, err)
	assert.Equal(t, "VF", cluster)
	_, err = clusters.Resolve("UNKNOWN")
	assert.Error(t, err)
}
