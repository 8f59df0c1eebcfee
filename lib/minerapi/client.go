// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package minerapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/bureau-foundation/rigwatch/lib/netutil"
)

// Commands understood by the ccminer text API.
const (
	CommandSummary = "summary"
	CommandThreads = "threads"
)

// MaxResponseSize bounds a single API reply. Real replies are a few
// hundred bytes per device.
const MaxResponseSize int64 = 1 << 20

// Client fetches raw payloads from one miner's status API.
type Client struct {
	address string
	timeout time.Duration
	logger  *slog.Logger
	dialer  net.Dialer
}

// NewClient creates a Client for the API at address (host:port). Each
// Fetch is bounded by timeout in addition to its context.
func NewClient(address string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		address: address,
		timeout: timeout,
		logger:  logger,
	}
}

// Address returns the API address the client polls.
func (c *Client) Address() string {
	return c.address
}

// Fetch sends command and returns the miner's reply with trailing NUL
// bytes and whitespace removed. Any transport failure (refused,
// timeout, reset before data, oversize reply) returns "", as does a
// reply still incomplete when the timeout or ctx ends the read.
func (c *Client) Fetch(ctx context.Context, command string) string {
	payload, err := c.fetch(ctx, command)
	if err != nil {
		c.logger.Debug("miner API request failed",
			"address", c.address,
			"command", command,
			"error", err,
		)
		return ""
	}
	return payload
}

func (c *Client) fetch(ctx context.Context, command string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", err
		}
	}
	// Unblock the read if the caller cancels before the deadline.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := conn.Write([]byte(command)); err != nil {
		return "", err
	}
	data, err := netutil.ReadLimited(conn, MaxResponseSize)
	if err != nil {
		return "", err
	}
	// A read cut short by the deadline or by cancellation ends in a
	// closed-connection error that ReadLimited reports as EOF. The bytes
	// received so far are a partial reply.
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("reply incomplete after %d bytes: %w", len(data), err)
	}
	return strings.TrimRight(string(data), "\x00 \t\r\n"), nil
}
