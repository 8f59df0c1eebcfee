// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"strings"
	"sync"
	"testing"
)

// MinerServer answers ccminer-style status commands on a loopback TCP
// port. Each connection carries one command; the server writes the
// configured payload and closes the connection, as the real miners do.
// Commands without a configured payload get an empty reply.
type MinerServer struct {
	listener net.Listener

	mu        sync.Mutex
	responses map[string]string
	requests  map[string]int
	silent    bool
	wg        sync.WaitGroup
	hold      chan struct{}
}

// NewMinerServer starts a server and registers its shutdown with
// t.Cleanup.
func NewMinerServer(t *testing.T) *MinerServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening for fake miner API: %v", err)
	}
	server := &MinerServer{
		listener:  listener,
		responses: make(map[string]string),
		requests:  make(map[string]int),
		hold:      make(chan struct{}),
	}
	server.wg.Add(1)
	go server.serve()
	t.Cleanup(server.Close)
	return server
}

// Address returns the host:port the server listens on.
func (s *MinerServer) Address() string {
	return s.listener.Addr().String()
}

// SetResponse sets the payload returned for command.
func (s *MinerServer) SetResponse(command, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[command] = payload
}

// SetSilent makes the server accept connections and read commands but
// never answer until Close, simulating a hung miner.
func (s *MinerServer) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

// Requests returns how many times command has been received.
func (s *MinerServer) Requests(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[command]
}

// Close stops accepting connections and waits for handlers to exit.
func (s *MinerServer) Close() {
	s.mu.Lock()
	select {
	case <-s.hold:
	default:
		close(s.hold)
	}
	s.mu.Unlock()
	s.listener.Close()
	s.wg.Wait()
}

func (s *MinerServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *MinerServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	buffer := make([]byte, 256)
	n, err := conn.Read(buffer)
	if err != nil {
		return
	}
	command := strings.TrimRight(string(buffer[:n]), "|\r\n\x00 ")

	s.mu.Lock()
	s.requests[command]++
	payload := s.responses[command]
	silent := s.silent
	s.mu.Unlock()

	if silent {
		<-s.hold
		return
	}
	conn.Write([]byte(payload))
}
