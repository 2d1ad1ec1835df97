/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig tests configuration loading
// TestLoadConfig 测试配置加载
func TestLoadConfig(t *testing.T) {
	// Create a temporary config file / 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
shell:
  dev_mode: true

sidecar:
  ai:
    name: "karios-ai-service"
    port: 5310
    ready_deadline: 12s
  quant:
    name: "karios-quant-service"
    port: 5320
    ready_deadline: 30s
  output: discard

log:
  level: debug
  file: /tmp/karios-shell.log
  max_size: 20
  max_backups: 5
  max_age: 14
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Load config / 加载配置
	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify values / 验证值
	assert.True(t, cfg.Shell.DevMode)
	assert.Equal(t, "karios-ai-service", cfg.Sidecar.AI.Name)
	assert.Equal(t, 5310, cfg.Sidecar.AI.Port)
	assert.Equal(t, 12*time.Second, cfg.Sidecar.AI.ReadyDeadline)
	assert.Equal(t, "karios-quant-service", cfg.Sidecar.Quant.Name)
	assert.Equal(t, 5320, cfg.Sidecar.Quant.Port)
	assert.Equal(t, 30*time.Second, cfg.Sidecar.Quant.ReadyDeadline)
	assert.Equal(t, OutputDiscard, cfg.Sidecar.Output)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/karios-shell.log", cfg.Log.File)
	assert.Equal(t, 20, cfg.Log.MaxSize)
	assert.Equal(t, 5, cfg.Log.MaxBackups)
	assert.Equal(t, 14, cfg.Log.MaxAge)
}

// TestLoadConfigDefaults tests default configuration values
// TestLoadConfigDefaults 测试默认配置值
func TestLoadConfigDefaults(t *testing.T) {
	// Create a minimal config file / 创建最小配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
shell:
  dev_mode: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Load config / 加载配置
	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify default values / 验证默认值
	assert.False(t, cfg.Shell.DevMode)
	assert.Equal(t, DefaultAIName, cfg.Sidecar.AI.Name)
	assert.Equal(t, DefaultAIPort, cfg.Sidecar.AI.Port)
	assert.Equal(t, DefaultAIDeadline, cfg.Sidecar.AI.ReadyDeadline)
	assert.Equal(t, DefaultQuantName, cfg.Sidecar.Quant.Name)
	assert.Equal(t, DefaultQuantPort, cfg.Sidecar.Quant.Port)
	assert.Equal(t, DefaultQuantDeadline, cfg.Sidecar.Quant.ReadyDeadline)
	assert.Equal(t, OutputFile, cfg.Sidecar.Output)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, "", cfg.Log.File)
	assert.Equal(t, DefaultLogMaxSize, cfg.Log.MaxSize)
	assert.Equal(t, DefaultLogMaxBackups, cfg.Log.MaxBackups)
	assert.Equal(t, DefaultLogMaxAge, cfg.Log.MaxAge)
}

// TestLoadConfigMissingFile tests loading with a nonexistent config file
// TestLoadConfigMissingFile 测试加载不存在的配置文件
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Should fall back to defaults / 应回退到默认值
	assert.Equal(t, DefaultAIPort, cfg.Sidecar.AI.Port)
	assert.Equal(t, DefaultQuantPort, cfg.Sidecar.Quant.Port)
}

// TestValidateConfig tests configuration validation
// TestValidateConfig 测试配置验证
func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Sidecar: SidecarConfig{
				AI:    ServiceConfig{Name: DefaultAIName, Port: DefaultAIPort, ReadyDeadline: DefaultAIDeadline},
				Quant: ServiceConfig{Name: DefaultQuantName, Port: DefaultQuantPort, ReadyDeadline: DefaultQuantDeadline},
				Output: OutputFile,
			},
			Log: LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing ai name",
			mutate:  func(c *Config) { c.Sidecar.AI.Name = "" },
			wantErr: "sidecar.ai.name is required",
		},
		{
			name:    "missing quant name",
			mutate:  func(c *Config) { c.Sidecar.Quant.Name = "" },
			wantErr: "sidecar.quant.name is required",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Sidecar.AI.Port = 70000 },
			wantErr: "invalid port",
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Sidecar.Quant.Port = 0 },
			wantErr: "invalid port",
		},
		{
			name:    "duplicate ports",
			mutate:  func(c *Config) { c.Sidecar.Quant.Port = c.Sidecar.AI.Port },
			wantErr: "distinct ports",
		},
		{
			name:    "non-positive deadline",
			mutate:  func(c *Config) { c.Sidecar.AI.ReadyDeadline = 0 },
			wantErr: "must be positive",
		},
		{
			name:    "bad output mode",
			mutate:  func(c *Config) { c.Sidecar.Output = "syslog" },
			wantErr: "invalid sidecar.output",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// TestConfigString tests the debug representation
// TestConfigString 测试调试字符串表示
func TestConfigString(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, DefaultAIName)
	assert.Contains(t, s, DefaultQuantName)
	assert.Contains(t, s, "4310")
	assert.Contains(t, s, "4320")
}
