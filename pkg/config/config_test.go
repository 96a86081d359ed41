package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
service:
  name: storefront
  port: 9090
  frontend_url: https://shop.example.com
mysql:
  host: db
  port: 3307
  user: app
  password: secret
  dbname: jewelry
redis:
  address: redis:6379
  cart_ttl: 48h
currencies:
  usd:
    rate: 0.0125
    symbol: "$"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, sampleYAML)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, "https://shop.example.com", cfg.Service.FrontendURL)
	assert.Equal(t, "db", cfg.Mysql.Host)
	assert.Equal(t, 3307, cfg.Mysql.Port)
	assert.Equal(t, 48*time.Hour, cfg.Redis.CartTTL)
	assert.Equal(t, 0.0125, cfg.Currencies["usd"].Rate)

	// 未在文件中出现的 key 使用默认值
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "122.160.0.1", cfg.GeoIP.FallbackIP)
	assert.Equal(t, "mail.outbound", cfg.RabbitMQ.MailQueue)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, sampleYAML)
	t.Setenv("MYSQL_HOST", "mysql.internal")
	t.Setenv("SERVICE_PORT", "7070")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "mysql.internal", cfg.Mysql.Host)
	assert.Equal(t, 7070, cfg.Service.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(dir)
	assert.Error(t, err)

	cfg, err := LoadConfigOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "@every 6h", cfg.Pricing.RecalcCron)
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := writeConfig(t, "service: [unterminated")

	_, err := LoadConfigOrDefault(dir)
	assert.Error(t, err)
}
