package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string        `yaml:"listen_addr"`
	Port             string        `yaml:"port"`
	DatabasePath     string        `yaml:"database_path"`
	GinMode          string        `yaml:"gin_mode"`
	Timezone         string        `yaml:"timezone"`
	RolloverInterval time.Duration `yaml:"rollover_interval"`
	RolloverLockTTL  time.Duration `yaml:"rollover_lock_ttl"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPassword    string        `yaml:"redis_password"`
	RedisDB          int           `yaml:"redis_db"`
	MQURL            string        `yaml:"mq_url"`
	MetricsPath      string        `yaml:"metrics_path"`
}

// Location 解析时区，无法识别时回退到本地时区
func (c AppConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load 先读取 QUESTIFY_CONFIG 指向的 YAML 文件（可选），再由环境变量覆盖，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig

	if path := strings.TrimSpace(os.Getenv("QUESTIFY_CONFIG")); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		cfg = fileCfg
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadFile 解析 YAML 配置文件
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.MQURL, "MQ_URL")
	setString(&cfg.MetricsPath, "METRICS_PATH")

	if err := setDuration(&cfg.RolloverInterval, "ROLLOVER_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RolloverLockTTL, "ROLLOVER_LOCK_TTL"); err != nil {
		return err
	}

	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "questify.db"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.RolloverInterval <= 0 {
		cfg.RolloverInterval = time.Minute
	}
	if cfg.RolloverLockTTL <= 0 {
		cfg.RolloverLockTTL = 30 * time.Second
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// 支持 Go duration（60s）或纯秒数（60）
func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}
