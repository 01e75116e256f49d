package upstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/pfrederiksen/playback-monitor/internal/logger"
	"github.com/pfrederiksen/playback-monitor/internal/monitor"
	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

const dialTimeout = 10 * time.Second

// message is the wire envelope used by the playback service.
type message struct {
	Type    string                  `json:"type"`
	Flush   bool                    `json:"flush,omitempty"`
	Players []playback.PlayerConfig `json:"players,omitempty"`
}

const (
	typeSubscribe = "subscribe"
	typeSnapshot  = "snapshot"
)

// Socket is the websocket transport to the playback service. It implements
// monitor.PlaybackService.
type Socket struct {
	url    string
	dialer *websocket.Dialer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	cb      monitor.Callback
}

// NewSocket creates a transport for the given websocket URL. Nothing is
// dialed until RegisterPlaybackCallback.
func NewSocket(url string) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterPlaybackCallback dials the playback service, performs the subscribe
// handshake, and starts the read loop delivering snapshots to cb. It returns
// an error only when the initial connection fails, so the caller's lazy
// registration retry can kick in; once connected, reconnects are handled
// internally with backoff. Repeated calls after a successful registration are
// no-ops.
//
// cb is never invoked from this call, only from the read-loop goroutine.
func (s *Socket) RegisterPlaybackCallback(cb monitor.Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	conn, err := s.connect()
	if err != nil {
		return err
	}

	s.cb = cb
	s.running = true
	go s.readLoop(conn)

	logger.Info("connected to playback service", logger.Fields{"url": s.url})
	return nil
}

// Close tears the connection down and stops reconnecting. The read loop exits
// after its current read fails.
func (s *Socket) Close() error {
	s.cancel()
	return nil
}

// connect dials and subscribes once.
func (s *Socket) connect() (*websocket.Conn, error) {
	conn, _, err := s.dialer.DialContext(s.ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing playback service: %w", err)
	}
	if err := conn.WriteJSON(message{Type: typeSubscribe}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to playback service: %w", err)
	}
	return conn, nil
}

// readLoop reads snapshot messages until Close. All snapshot deliveries
// happen on this one goroutine.
func (s *Socket) readLoop(conn *websocket.Conn) {
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			if s.ctx.Err() != nil {
				return
			}
			logger.Warn("playback service connection lost", logger.Fields{
				"url":   s.url,
				"error": err.Error(),
			})
			conn = s.reconnect()
			if conn == nil {
				return
			}
			continue
		}

		if msg.Type != typeSnapshot {
			logger.Debug("ignoring message", logger.Fields{"type": msg.Type})
			continue
		}

		logger.IncrCounter("upstream.snapshots")
		s.cb.ApplySnapshot(msg.Players, msg.Flush)
	}
}

// reconnect redials with exponential backoff until it succeeds or the socket
// is closed. Returns nil once the socket is closed.
func (s *Socket) reconnect() *websocket.Conn {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0 // retry until closed

	var conn *websocket.Conn
	op := func() error {
		var err error
		conn, err = s.connect()
		if err != nil {
			logger.Debug("reconnect attempt failed", logger.Fields{
				"url":   s.url,
				"error": err.Error(),
			})
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, s.ctx)); err != nil {
		return nil
	}

	logger.Info("reconnected to playback service", logger.Fields{"url": s.url})
	return conn
}
