package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Quotes struct {
		PrimaryURL  string        `yaml:"primary_url"`
		FallbackURL string        `yaml:"fallback_url"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"quotes"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Monitor struct {
		Schedule string `yaml:"schedule"` // cron表达式，默认每分钟
	} `yaml:"monitor"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)

	// 默认值
	if config.Quotes.Timeout == 0 {
		config.Quotes.Timeout = 10 * time.Second
	}
	if config.Monitor.Schedule == "" {
		config.Monitor.Schedule = "@every 1m"
	}

	return &config, nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用名称
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}

	// 环境
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 行情接口配置
	if env := os.Getenv("QUOTE_PRIMARY_URL"); env != "" {
		config.Quotes.PrimaryURL = env
	}
	if env := os.Getenv("QUOTE_FALLBACK_URL"); env != "" {
		config.Quotes.FallbackURL = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}

	// 监控任务配置
	if env := os.Getenv("MONITOR_SCHEDULE"); env != "" {
		config.Monitor.Schedule = env
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
