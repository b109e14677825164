package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "操作失败"
	testErr := errors.New("internal database error")

	// nil err 返回 fallback
	assert.Equal(t, fallback, ServerConfig{Mode: "debug"}.SafeErrorMessage(nil, fallback))

	// release 模式返回 fallback，不暴露错误详情
	assert.Equal(t, fallback, ServerConfig{Mode: "release"}.SafeErrorMessage(testErr, fallback))

	// debug 模式返回 err.Error()
	assert.Equal(t, "internal database error", ServerConfig{Mode: "debug"}.SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "America/Sao_Paulo", cfg.Projection.Timezone)
	assert.ElementsMatch(t, []string{"lazer", "desejos", "diversos"}, cfg.Projection.DiscretionaryCategories)
	assert.Equal(t, time.Minute, cfg.LoginWindow())
}

func TestLoadConfig_ExternalFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  driver: "postgres"
  max_open_conns: 4
jwt:
  expire_hours: 2
projection:
  timezone: "UTC"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	// 空闲连接数不能超过最大连接数
	assert.Equal(t, 4, cfg.Database.MaxIdleConns)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, time.UTC.String(), cfg.Location().String())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CARTEIRA_DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:     ServerConfig{Mode: "debug"},
		Database:   DatabaseConfig{Driver: "sqlite"},
		Projection: ProjectionConfig{Timezone: "UTC"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.NoError(t, cfg.Validate())

	// release 模式必须配置密钥
	cfg.Server.Mode = "release"
	cfg.JWT.Secret = "change-me"
	assert.Error(t, cfg.Validate())
	cfg.JWT.Secret = "a-real-secret"
	assert.NoError(t, cfg.Validate())

	cfg.Projection.Timezone = "Nowhere/Invalid"
	assert.Error(t, cfg.Validate())
}
