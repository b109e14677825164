package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigYAML 内置默认配置
//
//go:embed config.yaml
var DefaultConfigYAML []byte

// Config 应用配置，启动时构建一次，之后只读
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Email      EmailConfig      `mapstructure:"email"`
	Projection ProjectionConfig `mapstructure:"projection"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver"` // mysql / postgres
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	Username               string `mapstructure:"username"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	Charset                string `mapstructure:"charset"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// ProjectionConfig 月度预测配置
type ProjectionConfig struct {
	// DiscretionaryCategories 非必要类别（娱乐/欲望/杂项），不计入必要支出
	DiscretionaryCategories []string `mapstructure:"discretionary_categories"`
	// Timezone 计算“今天”所用的时区
	Timezone string `mapstructure:"timezone"`
}

// RateLimitConfig 登录限流配置
type RateLimitConfig struct {
	LoginAttempts      int `mapstructure:"login_attempts"`
	LoginWindowSeconds int `mapstructure:"login_window_seconds"`
}

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	// 本地开发时允许使用 .env 文件提供环境变量
	if err := godotenv.Load(); err == nil {
		log.Println("已加载 .env 文件")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}
	log.Println("已加载内置默认配置")

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("警告: 无法读取指定配置文件 %s: %v", configPath, err)
		} else {
			log.Printf("已合并外部配置文件: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/carteira")
		externalViper.AddConfigPath("$HOME/.carteira")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("警告: 合并外部配置失败: %v", err)
			} else {
				log.Printf("已合并外部配置文件: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. 支持环境变量覆盖，如 CARTEIRA_DATABASE_HOST
	v.SetEnvPrefix("CARTEIRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize 填充缺省值
func (c *Config) normalize() {
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 24
	}
	c.JWT.ExpireTime = time.Duration(c.JWT.ExpireHours) * time.Hour

	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		c.Database.MaxIdleConns = c.Database.MaxOpenConns
	}
	if c.Projection.Timezone == "" {
		c.Projection.Timezone = "UTC"
	}
	if c.RateLimit.LoginAttempts <= 0 {
		c.RateLimit.LoginAttempts = 5
	}
	if c.RateLimit.LoginWindowSeconds <= 0 {
		c.RateLimit.LoginWindowSeconds = 60
	}
}

// Validate 校验启动必需的配置项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.Server.Mode == "release" && (c.JWT.Secret == "" || c.JWT.Secret == "change-me") {
		return fmt.Errorf("release 模式下必须配置 jwt.secret")
	}
	if _, err := time.LoadLocation(c.Projection.Timezone); err != nil {
		return fmt.Errorf("无效的时区 %q: %w", c.Projection.Timezone, err)
	}
	return nil
}

// Location 返回计算“今天”所用的时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Projection.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoginWindow 登录限流窗口
func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.RateLimit.LoginWindowSeconds) * time.Second
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
// release 模式返回 fallback，其余模式返回 err.Error()
func (s ServerConfig) SafeErrorMessage(err error, fallback string) string {
	if err == nil || s.Mode == "release" {
		return fallback
	}
	return err.Error()
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func (c *Config) PrintConfig() {
	log.Printf("当前配置:")
	log.Printf("  服务器: %s (模式: %s)", c.Server.Port, c.Server.Mode)
	log.Printf("  数据库: %s %s@%s:%s/%s (连接池: %d)",
		c.Database.Driver,
		c.Database.Username,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.MaxOpenConns)
	log.Printf("  时区: %s", c.Projection.Timezone)
	log.Printf("  非必要类别: %v", c.Projection.DiscretionaryCategories)
	log.Printf("  邮件服务: %v", c.Email.Enabled)
}
