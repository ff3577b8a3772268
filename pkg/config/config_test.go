package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
app:
  name: StockWatch
  env: test

quotes:
  primary_url: https://primary.example.com/api
  fallback_url: http://fallback.example.com/api

database:
  postgres:
    host: db.example.com
    port: 5432
    user: sw
    password: secret
    dbname: stockwatch
    sslmode: disable

nats:
  url: nats://nats.example.com:4222

api:
  port: "9090"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadConfig 从YAML加载配置并应用默认值
func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Quotes.PrimaryURL != "https://primary.example.com/api" {
		t.Errorf("主地址不符: %s", cfg.Quotes.PrimaryURL)
	}
	if cfg.Quotes.FallbackURL != "http://fallback.example.com/api" {
		t.Errorf("备用地址不符: %s", cfg.Quotes.FallbackURL)
	}
	if cfg.Database.Postgres.Port != 5432 {
		t.Errorf("数据库端口不符: %d", cfg.Database.Postgres.Port)
	}
	if cfg.API.Port != "9090" {
		t.Errorf("API端口不符: %s", cfg.API.Port)
	}

	// 未配置的字段应用默认值
	if cfg.Quotes.Timeout != 10*time.Second {
		t.Errorf("默认超时应为10s, 实际为 %v", cfg.Quotes.Timeout)
	}
	if cfg.Monitor.Schedule != "@every 1m" {
		t.Errorf("默认调度周期不符: %s", cfg.Monitor.Schedule)
	}
}

// TestLoadConfig_EnvOverride 环境变量覆盖文件配置
func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("QUOTE_PRIMARY_URL", "https://override.example.com/api")
	t.Setenv("DB_HOST", "other-db.example.com")
	t.Setenv("API_PORT", "8888")

	cfg, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Quotes.PrimaryURL != "https://override.example.com/api" {
		t.Errorf("环境变量应覆盖主地址: %s", cfg.Quotes.PrimaryURL)
	}
	if cfg.Database.Postgres.Host != "other-db.example.com" {
		t.Errorf("环境变量应覆盖数据库主机: %s", cfg.Database.Postgres.Host)
	}
	if cfg.API.Port != "8888" {
		t.Errorf("环境变量应覆盖API端口: %s", cfg.API.Port)
	}
}

// TestLoadConfig_MissingFile 配置文件不存在时报错
func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/no/such/path/app.yaml"); err == nil {
		t.Fatal("配置文件不存在应报错")
	}
}
