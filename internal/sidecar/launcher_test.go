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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeScript writes an executable shell script for spawn tests
// writeScript 为启动测试写入一个可执行的 shell 脚本
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0755))
	return p
}

// skipOnWindows skips shell-script spawn tests on Windows
// skipOnWindows 在 Windows 上跳过 shell 脚本启动测试
func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script sidecar stand-ins are not runnable on Windows")
	}
}

// TestLaunch_MissingBinary tests the spawn failure path
// TestLaunch_MissingBinary 测试启动失败路径
func TestLaunch_MissingBinary(t *testing.T) {
	l := NewLauncher(zap.NewNop())

	missing := filepath.Join(t.TempDir(), "karios-ai-service")
	cmd, closer, err := l.Launch("karios-ai-service", missing, nil, "")
	require.Error(t, err)
	assert.Nil(t, cmd)
	assert.Nil(t, closer)

	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "karios-ai-service", se.Name)
	assert.Equal(t, missing, se.Path)
	assert.ErrorIs(t, err, se.Err)
}

// TestLaunch_LogFileAndEnv tests log redirection, env overrides and the
// sidecar marker
// TestLaunch_LogFileAndEnv 测试日志重定向、环境变量覆盖和 Sidecar 标记
func TestLaunch_LogFileAndEnv(t *testing.T) {
	skipOnWindows(t)

	tmpDir := t.TempDir()
	bin := writeScript(t, tmpDir, "karios-ai-service",
		`echo "port=$PORT marker=$KARIOS_SIDE_CAR"`)
	logPath := filepath.Join(tmpDir, "logs", "karios-ai-service.log")

	l := NewLauncher(zap.NewNop())
	cmd, closer, err := l.Launch("karios-ai-service", bin,
		[]EnvVar{{Key: "PORT", Value: "4310"}}, logPath)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	require.NotNil(t, closer)

	require.NoError(t, cmd.Wait())
	require.NoError(t, closer.Close())

	// The log directory was created and output landed in the file
	// 日志目录已创建，输出写入了文件
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port=4310 marker=1")
}

// TestLaunch_AppendMode tests that consecutive launches append to the log
// TestLaunch_AppendMode 测试连续启动会追加写入日志
func TestLaunch_AppendMode(t *testing.T) {
	skipOnWindows(t)

	tmpDir := t.TempDir()
	bin := writeScript(t, tmpDir, "karios-quant-service", `echo "run"`)
	logPath := filepath.Join(tmpDir, "logs", "karios-quant-service.log")

	l := NewLauncher(zap.NewNop())
	for i := 0; i < 2; i++ {
		cmd, closer, err := l.Launch("karios-quant-service", bin, nil, logPath)
		require.NoError(t, err)
		require.NoError(t, cmd.Wait())
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "run\nrun\n", string(data))
}

// TestLaunch_DiscardOutput tests the discard destination
// TestLaunch_DiscardOutput 测试丢弃输出模式
func TestLaunch_DiscardOutput(t *testing.T) {
	skipOnWindows(t)

	tmpDir := t.TempDir()
	bin := writeScript(t, tmpDir, "karios-ai-service", `echo "nobody sees this"`)

	l := NewLauncher(zap.NewNop())
	cmd, closer, err := l.Launch("karios-ai-service", bin, nil, "")
	require.NoError(t, err)
	assert.Nil(t, closer)
	require.NoError(t, cmd.Wait())
}
