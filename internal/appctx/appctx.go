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

// Package appctx abstracts the path capabilities the hosting shell grants
// the sidecar supervisor.
// appctx 包抽象宿主外壳授予 Sidecar 守护器的路径能力。
//
// The supervisor never depends on the host framework's concrete types;
// it only needs to resolve three locations:
// 守护器不依赖宿主框架的具体类型，只需要解析三个位置：
// - The application-private data directory / 应用私有数据目录
// - The directory of the shell's own executable / 外壳自身可执行文件所在目录
// - The bundled-resource directory / 捆绑资源目录
package appctx

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName is the directory name used under the user's config area
// AppName 是用户配置区域下使用的目录名
const AppName = "karios"

// Context resolves the host-granted directories for the supervisor
// Context 为守护器解析宿主授予的目录
type Context interface {
	// AppDataDir returns the application-private data directory
	// AppDataDir 返回应用私有数据目录
	AppDataDir() (string, error)

	// ExecutableDir returns the directory containing the shell executable
	// ExecutableDir 返回包含外壳可执行文件的目录
	ExecutableDir() (string, error)

	// ResourceDir returns the bundled-resource directory
	// ResourceDir 返回捆绑资源目录
	ResourceDir() (string, error)
}

// OSContext is the default Context backed by the operating system
// OSContext 是由操作系统支持的默认 Context
type OSContext struct{}

var _ Context = (*OSContext)(nil)

// NewOSContext creates a Context backed by the running process
// NewOSContext 创建由当前进程支持的 Context
func NewOSContext() *OSContext {
	return &OSContext{}
}

// AppDataDir resolves the per-user data directory for the application
// AppDataDir 解析应用的用户级数据目录
func (c *OSContext) AppDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// ExecutableDir resolves the directory of the current executable
// ExecutableDir 解析当前可执行文件所在目录
func (c *OSContext) ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ResourceDir resolves the bundled-resource directory next to the executable
// ResourceDir 解析可执行文件旁的捆绑资源目录
func (c *OSContext) ResourceDir() (string, error) {
	dir, err := c.ExecutableDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "resources"), nil
}
