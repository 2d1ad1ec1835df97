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
	"net"
	"strconv"
	"time"
)

// Probe timing constants
// 探测时间常量
const (
	// ProbeDialTimeout is the timeout for a single connection attempt
	// ProbeDialTimeout 是单次连接尝试的超时时间
	ProbeDialTimeout = 200 * time.Millisecond

	// ProbeRetryInterval is the sleep between failed connection attempts
	// ProbeRetryInterval 是连接失败后重试前的休眠时间
	ProbeRetryInterval = 120 * time.Millisecond
)

// IsPortOpen reports whether loopback:port currently accepts TCP
// connections. It is purely observational and never reads any payload.
// IsPortOpen 报告 loopback:port 当前是否接受 TCP 连接。
// 它仅做观测，从不读取任何载荷。
func IsPortOpen(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, ProbeDialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitPort polls loopback:port until it accepts a connection or the
// deadline elapses. It blocks the calling goroutine for at most the
// deadline plus one dial timeout.
// WaitPort 轮询 loopback:port 直到接受连接或超过期限。
// 它阻塞调用方 goroutine，最长为期限加一次拨号超时。
func WaitPort(port int, deadline time.Duration) bool {
	start := time.Now()
	for time.Since(start) < deadline {
		if IsPortOpen(port) {
			return true
		}
		time.Sleep(ProbeRetryInterval)
	}
	return false
}
