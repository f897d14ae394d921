// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（JWT 密钥、MinIO 凭证）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Auth   AuthConfig   `yaml:"auth"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// MinIOConfig 对象存储配置，凭证从环境变量读取
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"` // 对外可访问的基础 URL，空时按 endpoint 推导
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	TokenTTL  time.Duration `yaml:"token_ttl"`
	JWTSecret string        `yaml:"-"` // 从 JWT_SECRET 环境变量读取
}

// UnmarshalYAML 支持 "24h" 这类 Duration 字符串写法
func (a *AuthConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TokenTTL string `yaml:"token_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.TokenTTL != "" {
		ttl, err := time.ParseDuration(raw.TokenTTL)
		if err != nil {
			return fmt.Errorf("invalid token_ttl %q: %w", raw.TokenTTL, err)
		}
		a.TokenTTL = ttl
	}
	return nil
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env     Environment
	APIPort string
	Mongo   MongoConfig
	MinIO   MinIOConfig
	Auth    AuthConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:     env,
		APIPort: getEnv("PORT", yamlCfg.Server.Port),
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", yamlCfg.Mongo.URI),
			Database: getEnv("MONGO_DATABASE", yamlCfg.Mongo.Database),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", yamlCfg.MinIO.Endpoint),
			Bucket:    yamlCfg.MinIO.Bucket,
			UseSSL:    yamlCfg.MinIO.UseSSL,
			PublicURL: yamlCfg.MinIO.PublicURL,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		},
		Auth: AuthConfig{
			TokenTTL:  yamlCfg.Auth.TokenTTL,
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
	}

	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "shop_api"},
		MinIO:  MinIOConfig{Endpoint: "localhost:9000", Bucket: "shop-api"},
		Auth:   AuthConfig{TokenTTL: 24 * time.Hour},
	}

	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（不含敏感信息）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, MinIO: %s/%s, Port: %s}",
		c.Env, c.Mongo.URI, c.Mongo.Database, c.MinIO.Endpoint, c.MinIO.Bucket, c.APIPort)
}
