package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: payment-api
  http_addr: ":8080"
mysql:
  dsn: "user:pass@tcp(localhost:3306)/payments?parseTime=true"
gateway:
  base_url: "https://api.mch.weixin.qq.com"
  mch_id: "mch-1001"
reconcile:
  interval: 30s
  grace: 5m
`

func writeConfigs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad_BaseOnly(t *testing.T) {
	dir := writeConfigs(t, map[string]string{"base.yaml": baseYAML})

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)

	assert.Equal(t, "payment-api", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "mch-1001", cfg.Gateway.MchID)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Grace)
}

func TestLoad_EnvOverlayWins(t *testing.T) {
	dir := writeConfigs(t, map[string]string{
		"base.yaml": baseYAML,
		"prod.yaml": "app:\n  http_addr: \":9090\"\n",
	})

	cfg, err := Load(dir, "prod")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.App.HTTPAddr)
	// untouched keys keep base values
	assert.Equal(t, "mch-1001", cfg.Gateway.MchID)
}

func TestLoad_EnvVarOverridesFile(t *testing.T) {
	dir := writeConfigs(t, map[string]string{"base.yaml": baseYAML})
	t.Setenv("PAYAPI_MYSQL__DSN", "override:dsn@tcp(db:3306)/payments")

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)
	assert.Equal(t, "override:dsn@tcp(db:3306)/payments", cfg.MySQL.DSN)
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := map[string]string{
		"missing http_addr": `
mysql: {dsn: "x"}
gateway: {base_url: "https://gw", mch_id: "m"}
reconcile: {grace: 5m}
`,
		"missing dsn": `
app: {http_addr: ":8080"}
gateway: {base_url: "https://gw", mch_id: "m"}
reconcile: {grace: 5m}
`,
		"missing gateway": `
app: {http_addr: ":8080"}
mysql: {dsn: "x"}
reconcile: {grace: 5m}
`,
		"zero grace": `
app: {http_addr: ":8080"}
mysql: {dsn: "x"}
gateway: {base_url: "https://gw", mch_id: "m"}
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeConfigs(t, map[string]string{"base.yaml": content})
			_, err := Load(dir, "dev")
			assert.Error(t, err)
		})
	}
}
