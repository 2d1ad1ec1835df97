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

// Package main is the entry point for the Karios desktop shell.
// main 包是 Karios 桌面外壳的入口点。
//
// The shell is the host process for the Karios desktop application:
// 外壳是 Karios 桌面应用的宿主进程，负责：
// - Starts the bundled AI and quant backend services / 启动捆绑的 AI 和量化后端服务
// - Waits for each backend's port to become reachable / 等待每个后端的端口变为可达
// - Terminates every backend when the shell exits / 外壳退出时终止所有后端
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karios/karios-desktop/internal/appctx"
	"github.com/karios/karios-desktop/internal/backend"
	"github.com/karios/karios-desktop/internal/config"
	"github.com/karios/karios-desktop/internal/logging"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Shell ties the configuration, logger and backend supervisor together
// Shell 将配置、日志器和后端守护器组合在一起
type Shell struct {
	// config holds the shell configuration
	// config 保存外壳配置
	config *config.Config

	// logger is the structured logger for the shell process
	// logger 是外壳进程的结构化日志器
	logger *zap.Logger

	// supervisor owns the backend service lifecycle
	// supervisor 负责后端服务的生命周期
	supervisor *backend.Supervisor

	// ctx is the main context for the shell
	// ctx 是外壳的主上下文
	ctx context.Context

	// cancel cancels the main context
	// cancel 取消主上下文
	cancel context.CancelFunc
}

// NewShell creates a new Shell instance with all components initialized
// NewShell 创建一个初始化所有组件的新 Shell 实例
func NewShell(cfg *config.Config, logger *zap.Logger) *Shell {
	ctx, cancel := context.WithCancel(context.Background())

	return &Shell{
		config:     cfg,
		logger:     logger,
		supervisor: backend.New(cfg, logger),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the backend services and blocks until shutdown
// Run 启动后端服务并阻塞直到关闭
func (s *Shell) Run() error {
	s.logger.Info("karios shell starting",
		zap.String("version", Version),
		zap.String("commit", GitCommit),
		zap.Bool("dev_mode", s.config.Shell.DevMode))

	s.supervisor.Start(appctx.NewOSContext())

	for _, svc := range s.supervisor.Services() {
		s.logger.Info("backend ready",
			zap.String("service", svc.Name),
			zap.Int("port", svc.Port),
			zap.Int("pid", svc.PID))
	}

	// Wait for context cancellation (shutdown signal)
	// 等待上下文取消（关闭信号）
	<-s.ctx.Done()

	return nil
}

// Shutdown stops all backend services and releases the shell
// Shutdown 停止所有后端服务并释放外壳
func (s *Shell) Shutdown() {
	s.logger.Info("karios shell shutting down")

	s.supervisor.Stop()
	s.cancel()
}

// rootCmd is the root command for the shell CLI
// rootCmd 是外壳 CLI 的根命令
var rootCmd = &cobra.Command{
	Use:   "karios-desktop",
	Short: "Karios desktop shell - supervises the bundled backend services",
	Long: `Karios desktop shell is the host process for the Karios application.
Karios 桌面外壳是 Karios 应用的宿主进程。

It locates the bundled backend binaries next to the executable, launches
them with the invocation environment they expect, waits for their ports
to come up, and terminates them when the shell exits.
它在可执行文件旁定位捆绑的后端二进制，以约定的调用环境启动它们，
等待端口就绪，并在外壳退出时终止它们。`,
	RunE: runShell,
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Karios Desktop Shell\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// configFile is the path to the configuration file
// configFile 是配置文件的路径
var configFile string

func init() {
	// Add flags to root command
	// 向根命令添加标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (default: config.yaml next to the executable)")

	// Add subcommands
	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

// runShell is the main entry point for the shell process
// runShell 是外壳进程的主入口点
func runShell(cmd *cobra.Command, args []string) error {
	// Load configuration
	// 加载配置
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w / 加载配置失败：%w", err, err)
	}

	// Validate configuration
	// 验证配置
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w / 无效配置：%w", err, err)
	}

	// Create logger
	// 创建日志器
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w / 创建日志器失败：%w", err, err)
	}
	defer func() { _ = logger.Sync() }()

	// Create shell
	// 创建外壳
	shell := NewShell(cfg, logger)

	// Setup signal handling for graceful shutdown
	// 设置信号处理以实现优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Run shell in goroutine
	// 在 goroutine 中运行外壳
	errChan := make(chan error, 1)
	go func() {
		errChan <- shell.Run()
	}()

	// Wait for signal or error
	// 等待信号或错误
	select {
	case sig := <-sigChan:
		logger.Info("received signal", zap.String("signal", sig.String()))
		shell.Shutdown()
		<-errChan
	case err := <-errChan:
		if err != nil {
			shell.Shutdown()
			return err
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
