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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort grabs a loopback port and releases it again
// freePort 获取一个回环端口然后立即释放
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// TestIsPortOpen tests single-shot connectability checks
// TestIsPortOpen 测试单次可连接性检查
func TestIsPortOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	assert.True(t, IsPortOpen(port))
	assert.False(t, IsPortOpen(freePort(t)))
}

// TestWaitPort_AlreadyOpen tests immediate readiness
// TestWaitPort_AlreadyOpen 测试端口已就绪的情况
func TestWaitPort_AlreadyOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	start := time.Now()
	assert.True(t, WaitPort(port, 5*time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

// TestWaitPort_OpensLate tests readiness after a delayed listen
// TestWaitPort_OpensLate 测试延迟监听后的就绪
func TestWaitPort_OpensLate(t *testing.T) {
	port := freePort(t)

	listening := make(chan net.Listener, 1)
	go func() {
		time.Sleep(300 * time.Millisecond)
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err == nil {
			listening <- ln
		} else {
			close(listening)
		}
	}()

	assert.True(t, WaitPort(port, 5*time.Second))

	if ln, ok := <-listening; ok {
		_ = ln.Close()
	}
}

// TestWaitPort_Timeout tests that the deadline bounds the wait
// TestWaitPort_Timeout 测试期限限制等待时间
func TestWaitPort_Timeout(t *testing.T) {
	port := freePort(t)

	deadline := 500 * time.Millisecond
	start := time.Now()
	assert.False(t, WaitPort(port, deadline))

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, deadline)
	// Bounded by deadline plus one dial timeout and one sleep
	// 以期限加一次拨号超时和一次休眠为上界
	assert.Less(t, elapsed, deadline+ProbeDialTimeout+ProbeRetryInterval+200*time.Millisecond)
}
