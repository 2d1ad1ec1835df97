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

package sidecar

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// SidecarMarkerEnv is set on every spawned service so the child can detect
// it is running under the shell's supervision.
// SidecarMarkerEnv 设置在每个被启动的服务上，让子进程能识别自己运行在外壳的监管之下。
const SidecarMarkerEnv = "KARIOS_SIDE_CAR"

// EnvVar is one environment variable override for a spawned service.
// Overrides are applied in slice order.
// EnvVar 是为被启动服务设置的一个环境变量覆盖，按切片顺序应用。
type EnvVar struct {
	Key   string
	Value string
}

// Launcher spawns sidecar service processes
// Launcher 负责启动 Sidecar 服务进程
type Launcher struct {
	logger *zap.Logger
}

// NewLauncher creates a Launcher
// NewLauncher 创建一个 Launcher
func NewLauncher(logger *zap.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Launch spawns the binary at bin as a supervised child process.
// Launch 将 bin 处的二进制作为受监管的子进程启动。
//
// The child gets no input stream. With a non-empty logPath both output
// streams are appended to that file (created with parents as needed);
// with an empty logPath output is discarded. The environment is the
// shell's own environment plus the overrides plus the sidecar marker.
// 子进程没有输入流。logPath 非空时，两个输出流都追加写入该文件
// （按需创建父目录）；logPath 为空时输出被丢弃。环境变量为外壳自身
// 环境加上覆盖项再加上 Sidecar 标记。
//
// The returned closer owns the log file handle and is nil when output is
// discarded.
// 返回的 closer 持有日志文件句柄；丢弃输出时为 nil。
func (l *Launcher) Launch(name, bin string, env []EnvVar, logPath string) (*exec.Cmd, io.Closer, error) {
	cmd := exec.Command(bin)

	var logFile *os.File
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, &SpawnError{Name: name, Path: bin, Err: err}
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, &SpawnError{Name: name, Path: bin, Err: err}
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}
	// With no log file, Stdout/Stderr stay nil and the OS discards output.
	// Stdin stays nil so the child gets no input stream.
	// 无日志文件时 Stdout/Stderr 保持 nil，操作系统会丢弃输出。
	// Stdin 保持 nil，子进程没有输入流。

	cmd.Env = os.Environ()
	for _, e := range env {
		cmd.Env = append(cmd.Env, e.Key+"="+e.Value)
	}
	cmd.Env = append(cmd.Env, SidecarMarkerEnv+"=1")

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, nil, &SpawnError{Name: name, Path: bin, Err: err}
	}

	l.logger.Debug("spawned sidecar process",
		zap.String("service", name),
		zap.String("binary", bin),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("log", logPath),
	)

	if logFile != nil {
		return cmd, logFile, nil
	}
	return cmd, nil, nil
}
