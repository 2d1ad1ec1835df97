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

// Package sidecar locates, launches and probes the bundled backend services.
// sidecar 包负责定位、启动和探测随应用捆绑的后端服务。
//
// This package provides:
// 此包提供：
// - Binary resolution across bundling layouts / 跨打包布局的二进制解析
// - Child process spawning with controlled env and output / 受控环境与输出的子进程启动
// - TCP readiness probing / TCP 就绪探测
package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/karios/karios-desktop/internal/appctx"
)

// TargetPlatform is the bundler's target platform identifier, injected at
// build time via -ldflags for bundle builds. Bundlers suffix external
// binaries with `-{target}`; dev and custom layouts use the plain name.
// TargetPlatform 是打包器的目标平台标识，在打包构建时通过 -ldflags 注入。
// 打包器会给外部二进制加上 `-{target}` 后缀；开发和自定义布局使用原名。
var TargetPlatform = ""

// exeSuffix returns the platform's executable suffix
// exeSuffix 返回平台的可执行文件后缀
func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// CandidateDirs returns the deduplicated, order-preserving list of
// directories a bundled binary may live in: the shell executable's own
// directory first, the bundled-resource directory second.
// CandidateDirs 返回捆绑二进制可能所在目录的去重且保序的列表：
// 外壳可执行文件自身目录在前，捆绑资源目录在后。
func CandidateDirs(ctx appctx.Context) []string {
	var out []string
	seen := make(map[string]bool)

	if dir, err := ctx.ExecutableDir(); err == nil && !seen[dir] {
		seen[dir] = true
		out = append(out, dir)
	}
	if dir, err := ctx.ResourceDir(); err == nil && !seen[dir] {
		seen[dir] = true
		out = append(out, dir)
	}

	return out
}

// binaryVariants returns the filename variants for a service in priority
// order: the target-platform-qualified name first (when available), then
// the plain name.
// binaryVariants 按优先级返回服务的文件名变体：
// 目标平台限定名在前（如可用），然后是原名。
func binaryVariants(name string) []string {
	suffix := exeSuffix()
	var variants []string
	if TargetPlatform != "" {
		variants = append(variants, fmt.Sprintf("%s-%s%s", name, TargetPlatform, suffix))
	}
	variants = append(variants, name+suffix)
	return variants
}

// FindBinary resolves the on-disk path of a bundled service binary. It
// returns the first existing path across candidate directories, trying the
// filename variants of binaryVariants within each directory.
// FindBinary 解析捆绑服务二进制的磁盘路径。在候选目录中按顺序查找，
// 在每个目录内依次尝试 binaryVariants 的文件名变体，返回第一个存在的路径。
func FindBinary(ctx appctx.Context, name string) (string, error) {
	dirs := CandidateDirs(ctx)
	variants := binaryVariants(name)

	for _, dir := range dirs {
		for _, file := range variants {
			p := filepath.Join(dir, file)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}

	return "", &NotFoundError{Name: name, Dirs: dirs}
}
