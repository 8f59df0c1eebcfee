// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package minerapi

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchReturnsTrimmedPayload(t *testing.T) {
	server := testutil.NewMinerServer(t)
	server.SetResponse(CommandSummary, "KHS=1.5;UPTIME=9|\x00\r\n")

	client := NewClient(server.Address(), 2*time.Second, discardLogger())
	got := client.Fetch(context.Background(), CommandSummary)
	if got != "KHS=1.5;UPTIME=9|" {
		t.Errorf("Fetch() = %q, want %q", got, "KHS=1.5;UPTIME=9|")
	}
	if server.Requests(CommandSummary) != 1 {
		t.Errorf("summary requests = %d, want 1", server.Requests(CommandSummary))
	}
}

func TestFetchConnectionRefusedIsEmpty(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	address := listener.Addr().String()
	listener.Close()

	client := NewClient(address, time.Second, discardLogger())
	if got := client.Fetch(context.Background(), CommandSummary); got != "" {
		t.Errorf("Fetch() = %q, want empty on refused connection", got)
	}
}

func TestFetchTimeoutIsEmpty(t *testing.T) {
	server := testutil.NewMinerServer(t)
	server.SetResponse(CommandSummary, "KHS=1")
	server.SetSilent(true)

	client := NewClient(server.Address(), 100*time.Millisecond, discardLogger())
	start := time.Now()
	got := client.Fetch(context.Background(), CommandSummary)
	if got != "" {
		t.Errorf("Fetch() = %q, want empty on timeout", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Fetch took %v, timeout not honored", elapsed)
	}
}

func TestFetchCanceledContextIsEmpty(t *testing.T) {
	server := testutil.NewMinerServer(t)
	server.SetResponse(CommandSummary, "KHS=1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(server.Address(), time.Second, discardLogger())
	if got := client.Fetch(ctx, CommandSummary); got != "" {
		t.Errorf("Fetch() = %q, want empty with canceled context", got)
	}
}

func TestFetchOversizeIsEmpty(t *testing.T) {
	server := testutil.NewMinerServer(t)
	server.SetResponse(CommandThreads, strings.Repeat("GPU=0;", int(MaxResponseSize)/6+10))

	client := NewClient(server.Address(), 5*time.Second, discardLogger())
	if got := client.Fetch(context.Background(), CommandThreads); got != "" {
		t.Errorf("Fetch() returned %d bytes, want empty for oversize reply", len(got))
	}
}

// partialReplyServer accepts one connection, writes reply, and then
// holds the connection open without closing it until the test ends.
func partialReplyServer(t *testing.T, reply string) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buffer := make([]byte, 64)
		conn.Read(buffer)
		conn.Write([]byte(reply))
		<-release
	}()
	t.Cleanup(func() {
		close(release)
		listener.Close()
		<-done
	})
	return listener.Addr().String()
}

func TestFetchTimeoutMidReplyIsEmpty(t *testing.T) {
	address := partialReplyServer(t, "GPU=0;POWER=150;KHS=4")

	client := NewClient(address, 100*time.Millisecond, discardLogger())
	if got := client.Fetch(context.Background(), CommandThreads); got != "" {
		t.Errorf("Fetch() = %q, want empty when the reply is cut off by the timeout", got)
	}
}

func TestFetchCanceledMidReplyIsEmpty(t *testing.T) {
	address := partialReplyServer(t, "GPU=0;POWER=150;KHS=4")

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(200*time.Millisecond, cancel)
	defer timer.Stop()

	client := NewClient(address, 10*time.Second, discardLogger())
	start := time.Now()
	got := client.Fetch(ctx, CommandThreads)
	if got != "" {
		t.Errorf("Fetch() = %q, want empty when canceled mid-reply", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Fetch took %v, cancellation not honored", elapsed)
	}
}
