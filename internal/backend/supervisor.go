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

// Package backend supervises the bundled backend services of the shell.
// backend 包监管外壳捆绑的后端服务。
//
// This package provides:
// 此包提供：
// - One-shot ordered startup of the AI and quant services / AI 与 quant 服务的一次性有序启动
// - TCP readiness confirmation before registration / 注册前的 TCP 就绪确认
// - A registry of running services under one lock / 单锁保护的运行服务注册表
// - Best-effort teardown on shell close / 外壳关闭时的尽力终止
//
// There is no monitoring after initial readiness and no restart policy;
// a service that fails to start stays down until the application is
// relaunched.
// 初始就绪后不再监控，也没有重启策略；启动失败的服务在应用重启前保持停机。
package backend

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/karios/karios-desktop/internal/appctx"
	"github.com/karios/karios-desktop/internal/config"
	"github.com/karios/karios-desktop/internal/sidecar"
)

// DatabaseFileName is the quant service's persistent storage file under the
// application data directory
// DatabaseFileName 是 quant 服务在应用数据目录下的持久化存储文件
const DatabaseFileName = "karios.sqlite3"

// ServiceSpec describes one service launch attempt. Specs are built by the
// supervisor from the configuration; they are immutable.
// ServiceSpec 描述一次服务启动尝试。由守护器根据配置构建，不可变。
type ServiceSpec struct {
	// Name is the logical service name and binary base name
	// Name 是服务的逻辑名称，也是二进制文件的基础名
	Name string

	// Port is the loopback TCP port the service must open
	// Port 是服务必须打开的回环 TCP 端口
	Port int

	// Env are the ordered environment overrides for the child
	// Env 是子进程的有序环境变量覆盖
	Env []sidecar.EnvVar

	// ReadyDeadline bounds the readiness wait
	// ReadyDeadline 限定就绪等待时间
	ReadyDeadline time.Duration
}

// RunningService is a service that was spawned and confirmed ready. It is
// owned exclusively by the supervisor's registry.
// RunningService 是已启动且确认就绪的服务，由守护器的注册表独占持有。
type RunningService struct {
	// Name is the logical service name / Name 是服务的逻辑名称
	Name string

	// Port is the confirmed-ready port / Port 是已确认就绪的端口
	Port int

	// cmd is the owned child process handle / cmd 是持有的子进程句柄
	cmd *exec.Cmd

	// log is the owned log file handle, nil when output is discarded
	// log 是持有的日志文件句柄，丢弃输出时为 nil
	log io.Closer
}

// ServiceInfo is a snapshot of one running service for external use
// ServiceInfo 是一个运行中服务的快照，供外部使用
type ServiceInfo struct {
	Name string `json:"name"`
	Port int    `json:"port"`
	PID  int    `json:"pid"`
}

// launchFunc resolves, spawns and probes one service. It exists as a seam
// so tests can substitute the real launch path.
// launchFunc 解析、启动并探测一个服务。作为接缝存在，便于测试替换真实启动路径。
type launchFunc func(hostCtx appctx.Context, dataDir string, spec ServiceSpec) (*RunningService, error)

// Supervisor orchestrates startup and shutdown of the bundled services.
// Supervisor 编排捆绑服务的启动与关闭。
//
// Start and Stop serialize on the same mutex, so a service that has been
// spawned but not yet recorded can never be orphaned by a concurrent Stop.
// Start 与 Stop 在同一互斥锁上串行化，已启动但尚未记录的服务
// 不会被并发的 Stop 遗漏。
type Supervisor struct {
	// cfg holds the shell configuration / cfg 保存外壳配置
	cfg *config.Config

	// logger is the supervisor's own logger / logger 是守护器自身的日志器
	logger *zap.Logger

	// launcher spawns sidecar processes / launcher 负责启动 Sidecar 进程
	launcher *sidecar.Launcher

	// started is the one-shot launch latch; it transitions false→true
	// exactly once and never reverts
	// started 是一次性启动闩；只会从 false 变为 true 一次，不会回退
	started atomic.Bool

	// mu protects the registry and serializes Start against Stop
	// mu 保护注册表，并使 Start 与 Stop 串行化
	mu sync.Mutex

	// services is the registry of running services, replaced atomically
	// once a launch pass completes
	// services 是运行服务的注册表，启动流程结束后整体替换
	services []*RunningService

	// launch is the service launch path, replaceable in tests
	// launch 是服务启动路径，测试中可替换
	launch launchFunc
}

// New creates a Supervisor for the given configuration
// New 为给定配置创建一个 Supervisor
func New(cfg *config.Config, logger *zap.Logger) *Supervisor {
	s := &Supervisor{
		cfg:      cfg,
		logger:   logger,
		launcher: sidecar.NewLauncher(logger),
	}
	s.launch = s.launchService
	return s
}

// Start launches the bundled services. The hosting shell calls it once
// during its own initialization.
// Start 启动捆绑服务。宿主外壳在自身初始化期间调用一次。
//
// The launch sequence body executes at most once per process lifetime,
// regardless of caller count or calling goroutine. The AI service is
// launched first; the quant service's attempt never begins before the AI
// attempt has concluded, because it is handed the AI service's resolved
// address. The two attempts are independent: failure of either is logged
// and does not abort the other.
// 启动流程在进程生命周期内最多执行一次，不论调用次数或调用 goroutine。
// AI 服务先启动；quant 服务的尝试一定在 AI 尝试结束之后才开始，
// 因为它需要 AI 服务解析后的地址。两次尝试相互独立：
// 任一失败只记录日志，不会中止另一个。
func (s *Supervisor) Start(hostCtx appctx.Context) {
	// One-shot latch: only the first caller runs the body
	// 一次性闩：只有第一个调用者执行主体
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	// In dev runs the backends are started externally
	// 开发运行时后端由外部启动
	if s.cfg.Shell.DevMode {
		s.logger.Info("dev mode: sidecar services are managed externally")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dataDir := s.resolveDataDir(hostCtx)

	spawned := make([]*RunningService, 0, 2)
	for _, spec := range []ServiceSpec{s.primarySpec(dataDir), s.secondarySpec(dataDir)} {
		rs, err := s.launch(hostCtx, dataDir, spec)
		if err != nil {
			s.logger.Error("failed to start sidecar",
				zap.String("service", spec.Name),
				zap.Int("port", spec.Port),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("started sidecar",
			zap.String("service", rs.Name),
			zap.String("address", fmt.Sprintf("127.0.0.1:%d", rs.Port)),
		)
		spawned = append(spawned, rs)
	}

	// Replace the registry contents in one step / 一步替换注册表内容
	s.services = spawned
}

// Stop force-terminates every recorded service and clears the registry.
// The hosting shell calls it when its main window is closing.
// Stop 强制终止所有已记录的服务并清空注册表。宿主外壳在主窗口关闭时调用。
//
// Termination is best-effort: per-child failures are recorded and logged
// but never propagated. Stop on an empty registry is a no-op and it is
// safe to call repeatedly.
// 终止是尽力而为：单个子进程的失败会被记录但不会向外传播。
// 注册表为空时 Stop 是空操作，可以重复调用。
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.services) == 0 {
		return
	}

	terminated := 0
	failures := 0
	for _, rs := range s.services {
		s.logger.Info("stopping sidecar",
			zap.String("service", rs.Name),
			zap.String("address", fmt.Sprintf("127.0.0.1:%d", rs.Port)),
		)
		if err := rs.terminate(); err != nil {
			failures++
			s.logger.Warn("failed to terminate sidecar",
				zap.String("service", rs.Name),
				zap.Error(err),
			)
			continue
		}
		terminated++
	}

	s.services = nil
	s.logger.Info("sidecars stopped",
		zap.Int("terminated", terminated),
		zap.Int("failures", failures),
	)
}

// Services returns a snapshot of the running services
// Services 返回运行中服务的快照
func (s *Supervisor) Services() []ServiceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ServiceInfo, 0, len(s.services))
	for _, rs := range s.services {
		info := ServiceInfo{Name: rs.Name, Port: rs.Port}
		if rs.cmd != nil && rs.cmd.Process != nil {
			info.PID = rs.cmd.Process.Pid
		}
		out = append(out, info)
	}
	return out
}

// terminate kills the child, reaps it and releases the log handle
// terminate 杀死子进程、回收它并释放日志句柄
func (rs *RunningService) terminate() error {
	var killErr error
	if rs.cmd != nil && rs.cmd.Process != nil {
		killErr = rs.cmd.Process.Kill()
		_ = rs.cmd.Wait()
	}
	if rs.log != nil {
		_ = rs.log.Close()
	}
	return killErr
}

// resolveDataDir resolves and creates the application-private data
// directory, falling back to a relative path if resolution fails.
// resolveDataDir 解析并创建应用私有数据目录，失败时回退到相对路径。
func (s *Supervisor) resolveDataDir(hostCtx appctx.Context) string {
	dir, err := hostCtx.AppDataDir()
	if err == nil {
		if mkErr := os.MkdirAll(dir, 0755); mkErr == nil {
			return dir
		} else {
			err = mkErr
		}
	}

	s.logger.Warn("app data dir unavailable, falling back to relative path",
		zap.Error(err),
	)
	return "."
}

// primarySpec builds the AI service launch spec. The AI service persists
// runtime configuration (model provider, model id, API keys) under the
// data directory instead of relying on env vars.
// primarySpec 构建 AI 服务的启动规格。AI 服务将运行时配置
// （模型提供商、模型 ID、API 密钥）持久化在数据目录下，而非依赖环境变量。
func (s *Supervisor) primarySpec(dataDir string) ServiceSpec {
	ai := s.cfg.Sidecar.AI
	return ServiceSpec{
		Name:          ai.Name,
		Port:          ai.Port,
		ReadyDeadline: ai.ReadyDeadline,
		Env: []sidecar.EnvVar{
			{Key: "PORT", Value: strconv.Itoa(ai.Port)},
			{Key: "NODE_ENV", Value: "production"},
			{Key: "KARIOS_APP_DATA_DIR", Value: dataDir},
		},
	}
}

// secondarySpec builds the quant service launch spec. It receives the AI
// service's resolved base URL and a storage path under the data directory.
// secondarySpec 构建 quant 服务的启动规格。它会拿到 AI 服务解析后的
// 基础 URL 以及数据目录下的存储路径。
func (s *Supervisor) secondarySpec(dataDir string) ServiceSpec {
	quant := s.cfg.Sidecar.Quant
	return ServiceSpec{
		Name:          quant.Name,
		Port:          quant.Port,
		ReadyDeadline: quant.ReadyDeadline,
		Env: []sidecar.EnvVar{
			{Key: "HOST", Value: "127.0.0.1"},
			{Key: "PORT", Value: strconv.Itoa(quant.Port)},
			{Key: "AI_SERVICE_BASE_URL", Value: fmt.Sprintf("http://127.0.0.1:%d", s.cfg.Sidecar.AI.Port)},
			{Key: "PYTHONUNBUFFERED", Value: "1"},
			{Key: "DATABASE_PATH", Value: filepath.Join(dataDir, DatabaseFileName)},
		},
	}
}

// launchService is the real launch path: resolve the binary, spawn it, and
// wait for its port to accept connections.
// launchService 是真实启动路径：解析二进制、启动进程、等待端口可连接。
func (s *Supervisor) launchService(hostCtx appctx.Context, dataDir string, spec ServiceSpec) (*RunningService, error) {
	bin, err := sidecar.FindBinary(hostCtx, spec.Name)
	if err != nil {
		return nil, err
	}

	logPath := ""
	if s.cfg.Sidecar.Output == config.OutputFile {
		logPath = filepath.Join(dataDir, "logs", spec.Name+".log")
	}

	cmd, logFile, err := s.launcher.Launch(spec.Name, bin, spec.Env, logPath)
	if err != nil {
		return nil, err
	}

	if !sidecar.WaitPort(spec.Port, spec.ReadyDeadline) {
		// Don't leave a half-started child behind / 不留下启动了一半的子进程
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		}
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, &sidecar.ReadyTimeoutError{
			Name:     spec.Name,
			Port:     spec.Port,
			Deadline: spec.ReadyDeadline,
		}
	}

	return &RunningService{
		Name: spec.Name,
		Port: spec.Port,
		cmd:  cmd,
		log:  logFile,
	}, nil
}
