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
	"fmt"
	"strings"
	"time"
)

// NotFoundError indicates no binary variant of a service was found in any
// candidate directory.
// NotFoundError 表示在所有候选目录中都未找到服务的任何二进制变体。
type NotFoundError struct {
	// Name is the logical service name / Name 是服务的逻辑名称
	Name string

	// Dirs are the directories that were searched / Dirs 是已搜索的目录
	Dirs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sidecar binary not found: %s (searched in [%s])",
		e.Name, strings.Join(e.Dirs, ", "))
}

// SpawnError indicates an OS-level failure spawning a service binary.
// SpawnError 表示在启动服务二进制时发生的操作系统级失败。
type SpawnError struct {
	// Name is the logical service name / Name 是服务的逻辑名称
	Name string

	// Path is the binary path that was attempted / Path 是尝试启动的二进制路径
	Path string

	// Err is the underlying OS error / Err 是底层的操作系统错误
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ReadyTimeoutError indicates a spawned service never accepted TCP
// connections on its port within its deadline.
// ReadyTimeoutError 表示已启动的服务在期限内始终未在其端口上接受 TCP 连接。
type ReadyTimeoutError struct {
	// Name is the logical service name / Name 是服务的逻辑名称
	Name string

	// Port is the loopback port that never opened / Port 是始终未打开的回环端口
	Port int

	// Deadline is how long the probe waited / Deadline 是探测等待的时长
	Deadline time.Duration
}

func (e *ReadyTimeoutError) Error() string {
	return fmt.Sprintf("%s did not become ready on port %d within %s",
		e.Name, e.Port, e.Deadline)
}
