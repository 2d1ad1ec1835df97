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

// Package config provides configuration management for the desktop shell.
// config 包提供桌面外壳的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Environment variables / 环境变量
// 2. Configuration file / 配置文件
// 3. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath    = "config.yaml"
	DefaultAIName        = "karios-ai-service"
	DefaultAIPort        = 4310
	DefaultAIDeadline    = 10 * time.Second
	DefaultQuantName     = "karios-quant-service"
	DefaultQuantPort     = 4320
	DefaultQuantDeadline = 25 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogMaxSize    = 50 // MB
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 7 // days
)

// Sidecar output modes
// Sidecar 输出模式
const (
	// OutputFile writes each service's output to an append-mode log file
	// OutputFile 将每个服务的输出写入追加模式的日志文件
	OutputFile = "file"

	// OutputDiscard throws service output away
	// OutputDiscard 丢弃服务输出
	OutputDiscard = "discard"
)

// Config represents the desktop shell configuration
// Config 表示桌面外壳配置
type Config struct {
	// Shell configuration / 外壳配置
	Shell ShellConfig `mapstructure:"shell"`

	// Sidecar configuration / Sidecar 配置
	Sidecar SidecarConfig `mapstructure:"sidecar"`

	// Log configuration for the supervisor itself / 守护器自身的日志配置
	Log LogConfig `mapstructure:"log"`
}

// ShellConfig contains shell-level settings
// ShellConfig 包含外壳级设置
type ShellConfig struct {
	// DevMode indicates an interactive/development run where the backend
	// services are managed externally and must not be spawned
	// DevMode 表示交互/开发运行模式，后端服务由外部管理，不应被拉起
	DevMode bool `mapstructure:"dev_mode"`
}

// SidecarConfig contains settings for the bundled backend services
// SidecarConfig 包含捆绑后端服务的设置
type SidecarConfig struct {
	// AI is the primary service; Quant depends on its address
	// AI 是主服务；Quant 依赖它的地址
	AI ServiceConfig `mapstructure:"ai"`

	// Quant is the secondary service
	// Quant 是次服务
	Quant ServiceConfig `mapstructure:"quant"`

	// Output selects where service output goes: "file" or "discard"
	// Output 选择服务输出的去向："file" 或 "discard"
	Output string `mapstructure:"output"`
}

// ServiceConfig describes one bundled service
// ServiceConfig 描述一个捆绑服务
type ServiceConfig struct {
	// Name is the logical service name and binary base name
	// Name 是服务的逻辑名称，也是二进制文件的基础名
	Name string `mapstructure:"name"`

	// Port is the loopback TCP port the service binds
	// Port 是服务绑定的回环 TCP 端口
	Port int `mapstructure:"port"`

	// ReadyDeadline is how long to wait for the port to accept connections
	// ReadyDeadline 是等待端口可连接的最长时间
	ReadyDeadline time.Duration `mapstructure:"ready_deadline"`
}

// LogConfig contains logging settings for the supervisor
// LogConfig 包含守护器的日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level"`

	// File is the log file path (empty means console only)
	// File 是日志文件路径（为空表示仅控制台）
	File string `mapstructure:"file"`

	// MaxSize is the maximum size of log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age"`
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Check environment variable / 检查环境变量
		envPath := os.Getenv("KARIOS_CONFIG_PATH")
		if envPath != "" {
			v.SetConfigFile(envPath)
		} else {
			v.SetConfigFile(DefaultConfigPath)
		}
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix("KARIOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error if we have defaults
		// 如果有默认值，配置文件未找到不是错误
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			// Check if file exists / 检查文件是否存在
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, use defaults / 文件不存在，使用默认值
		}
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadFromYAML loads configuration from YAML bytes
// LoadFromYAML 从 YAML 字节加载配置
func LoadFromYAML(yamlData []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults first / 首先设置默认值
	setDefaults(v)

	// Read from bytes / 从字节读取
	if err := v.ReadConfig(strings.NewReader(string(yamlData))); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Shell defaults / 外壳默认值
	v.SetDefault("shell.dev_mode", false)

	// Sidecar defaults / Sidecar 默认值
	v.SetDefault("sidecar.ai.name", DefaultAIName)
	v.SetDefault("sidecar.ai.port", DefaultAIPort)
	v.SetDefault("sidecar.ai.ready_deadline", DefaultAIDeadline)
	v.SetDefault("sidecar.quant.name", DefaultQuantName)
	v.SetDefault("sidecar.quant.port", DefaultQuantPort)
	v.SetDefault("sidecar.quant.ready_deadline", DefaultQuantDeadline)
	v.SetDefault("sidecar.output", OutputFile)

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	// Validate service names / 验证服务名称
	if c.Sidecar.AI.Name == "" {
		return errors.New("sidecar.ai.name is required")
	}
	if c.Sidecar.Quant.Name == "" {
		return errors.New("sidecar.quant.name is required")
	}

	// Validate ports / 验证端口
	for _, svc := range []ServiceConfig{c.Sidecar.AI, c.Sidecar.Quant} {
		if svc.Port < 1 || svc.Port > 65535 {
			return fmt.Errorf("invalid port for %s: %d (must be 1-65535)", svc.Name, svc.Port)
		}
		if svc.ReadyDeadline <= 0 {
			return fmt.Errorf("ready_deadline for %s must be positive", svc.Name)
		}
	}
	if c.Sidecar.AI.Port == c.Sidecar.Quant.Port {
		return fmt.Errorf("ai and quant must use distinct ports, both use %d", c.Sidecar.AI.Port)
	}

	// Validate output mode / 验证输出模式
	if c.Sidecar.Output != OutputFile && c.Sidecar.Output != OutputDiscard {
		return fmt.Errorf("invalid sidecar.output: %s (must be %q or %q)", c.Sidecar.Output, OutputFile, OutputDiscard)
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Shell.DevMode: %v, AI: %s:%d, Quant: %s:%d, Output: %s, Log.Level: %s}",
		c.Shell.DevMode,
		c.Sidecar.AI.Name, c.Sidecar.AI.Port,
		c.Sidecar.Quant.Name, c.Sidecar.Quant.Port,
		c.Sidecar.Output,
		c.Log.Level,
	)
}

// ToYAML serializes the configuration to YAML format
// ToYAML 将配置序列化为 YAML 格式
func (c *Config) ToYAML() ([]byte, error) {
	// Durations are emitted as strings so the result parses back with viper
	// 持续时间以字符串形式输出，保证结果能被 viper 解析回来
	doc := map[string]any{
		"shell": map[string]any{
			"dev_mode": c.Shell.DevMode,
		},
		"sidecar": map[string]any{
			"ai": map[string]any{
				"name":           c.Sidecar.AI.Name,
				"port":           c.Sidecar.AI.Port,
				"ready_deadline": c.Sidecar.AI.ReadyDeadline.String(),
			},
			"quant": map[string]any{
				"name":           c.Sidecar.Quant.Name,
				"port":           c.Sidecar.Quant.Port,
				"ready_deadline": c.Sidecar.Quant.ReadyDeadline.String(),
			},
			"output": c.Sidecar.Output,
		},
		"log": map[string]any{
			"level":       c.Log.Level,
			"file":        c.Log.File,
			"max_size":    c.Log.MaxSize,
			"max_backups": c.Log.MaxBackups,
			"max_age":     c.Log.MaxAge,
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

// Equal compares two configs for equality
// Equal 比较两个配置是否相等
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}

	// Compare Shell / 比较 Shell
	if c.Shell.DevMode != other.Shell.DevMode {
		return false
	}

	// Compare Sidecar / 比较 Sidecar
	if c.Sidecar.AI != other.Sidecar.AI ||
		c.Sidecar.Quant != other.Sidecar.Quant ||
		c.Sidecar.Output != other.Sidecar.Output {
		return false
	}

	// Compare Log / 比较 Log
	if c.Log.Level != other.Log.Level ||
		c.Log.File != other.Log.File ||
		c.Log.MaxSize != other.Log.MaxSize ||
		c.Log.MaxBackups != other.Log.MaxBackups ||
		c.Log.MaxAge != other.Log.MaxAge {
		return false
	}

	return true
}
