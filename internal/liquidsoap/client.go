/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package liquidsoap drives the audio engine over its line-oriented telnet
// control protocol. Engine failures never propagate into the scheduling
// loop: every command degrades to a logged no-op.
package liquidsoap

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pycolore/sunflower/internal/broadcast"
)

// Controller is the command surface channels, stations and handlers use.
type Controller interface {
	// SwitchSource activates station on the channel's switch and deactivates
	// the previously active one.
	SwitchSource(ctx context.Context, channelID, previous, next string)
	// InsertMetadata pushes stream tags for the channel's output.
	InsertMetadata(ctx context.Context, channelID string, md broadcast.StreamMetadata)
	// PushSong queues a local file on a request queue.
	PushSong(ctx context.Context, queueID, path string)
	// StartSource and StopSource toggle a relayed input.
	StartSource(ctx context.Context, stationName string)
	StopSource(ctx context.Context, stationName string)
}

// NopController discards every command. Used in tests and as the stand-in
// when no engine is configured.
type NopController struct{}

func (NopController) SwitchSource(ctx context.Context, channelID, previous, next string)          {}
func (NopController) InsertMetadata(ctx context.Context, channelID string, md broadcast.StreamMetadata) {
}
func (NopController) PushSong(ctx context.Context, queueID, path string) {}
func (NopController) StartSource(ctx context.Context, stationName string) {}
func (NopController) StopSource(ctx context.Context, stationName string)  {}

// Client holds a persistent session to the engine's telnet port and
// re-dials lazily after failures.
type Client struct {
	addr        string
	dialTimeout time.Duration
	ioTimeout   time.Duration
	logger      zerolog.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewClient builds a client for addr ("host:port").
func NewClient(addr string, logger zerolog.Logger) *Client {
	return &Client{
		addr:        addr,
		dialTimeout: 2 * time.Second,
		ioTimeout:   2 * time.Second,
		logger:      logger.With().Str("component", "liquidsoap").Logger(),
	}
}

// Send writes one command line and drains the engine's reply up to its END
// terminator, keeping the session's read buffer in sync for the next
// command. A failed session is dropped so the next command re-dials.
func (c *Client) Send(ctx context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
		if err != nil {
			return fmt.Errorf("liquidsoap: dial %s: %w", c.addr, err)
		}
		c.conn = conn
		c.reader = bufio.NewReader(conn)
	}

	deadline := time.Now().Add(c.ioTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = c.conn.SetDeadline(deadline)

	if _, err := fmt.Fprintf(c.conn, "%s\n", command); err != nil {
		c.drop()
		return fmt.Errorf("liquidsoap: write: %w", err)
	}
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			c.drop()
			return fmt.Errorf("liquidsoap: read reply: %w", err)
		}
		if strings.TrimRight(line, "\r\n") == "END" {
			return nil
		}
	}
}

// Close releases the session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// send logs failures and moves on: an unreachable engine must not stall a tick.
func (c *Client) send(ctx context.Context, command string) {
	if err := c.Send(ctx, command); err != nil {
		c.logger.Warn().Err(err).Str("command", command).Msg("engine command dropped")
	}
}

func (c *Client) SwitchSource(ctx context.Context, channelID, previous, next string) {
	c.send(ctx, fmt.Sprintf("var.set %s_on_%s = true", next, channelID))
	if previous != "" {
		c.send(ctx, fmt.Sprintf("var.set %s_on_%s = false", previous, channelID))
	}
}

func (c *Client) InsertMetadata(ctx context.Context, channelID string, md broadcast.StreamMetadata) {
	c.send(ctx, fmt.Sprintf("%s.insert title=%q,artist=%q,album=%q", channelID, md.Title, md.Artist, md.Album))
}

func (c *Client) PushSong(ctx context.Context, queueID, path string) {
	c.send(ctx, fmt.Sprintf("%s.push %s", queueID, path))
}

func (c *Client) StartSource(ctx context.Context, stationName string) {
	c.send(ctx, fmt.Sprintf("%s.start", stationName))
}

func (c *Client) StopSource(ctx context.Context, stationName string) {
	c.send(ctx, fmt.Sprintf("%s.stop", stationName))
}
