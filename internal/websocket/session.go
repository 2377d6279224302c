// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/seedmap/internal/config"
	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
	"github.com/tomtom215/seedmap/internal/store"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateConnecting State = iota
	StateJoined
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var errSessionClosed = errors.New("session closed")

// sessionIDCounter hands out session ids; 0 is never used so it can mean
// "no session" in BroadcastExcept.
var sessionIDCounter atomic.Uint64

// Session is one live connection bound to one seed.
//
// The reader goroutine handles inbound messages; the writer goroutine is
// the only one writing to the socket. Everything else talks to the session
// through Enqueue, which never blocks.
type Session struct {
	id   uint64
	seed string
	conn *websocket.Conn

	registry *Registry
	service  *markers.Service
	cfg      config.WebSocketConfig
	limiter  *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	send chan []byte
	done chan struct{}

	mu      sync.Mutex
	state   State
	started bool
	pending [][]byte // frames that arrived before the snapshot went out

	closeOnce sync.Once
	log       zerolog.Logger
}

func newSession(conn *websocket.Conn, seed string, registry *Registry, service *markers.Service, cfg config.WebSocketConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       sessionIDCounter.Add(1),
		seed:     seed,
		conn:     conn,
		registry: registry,
		service:  service,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		send:     make(chan []byte, cfg.SendBuffer),
		done:     make(chan struct{}),
		state:    StateConnecting,
	}
	if cfg.MessagesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.MessageBurst)
	}
	s.log = logging.With().
		Str("component", "session").
		Uint64("session_id", s.id).
		Str("seed", seed).
		Logger()
	return s
}

// ID returns the session id.
func (s *Session) ID() uint64 { return s.id }

// Seed returns the seed the session is bound to.
func (s *Session) Seed() string { return s.seed }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Enqueue hands frame to the writer without blocking. It returns false if
// the session is closed or its queue is full.
func (s *Session) Enqueue(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return false
	case StateConnecting:
		// One slot stays free for the snapshot.
		if len(s.pending) >= cap(s.send)-1 {
			return false
		}
		s.pending = append(s.pending, frame)
		return true
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// join registers the session and queues the snapshot ahead of any frame
// broadcast while the snapshot was being read.
func (s *Session) join() error {
	s.registry.Join(s.seed, s)

	list, err := s.service.List(s.ctx, s.seed)
	if err != nil {
		metrics.WSErrors.WithLabelValues("snapshot").Inc()
		return err
	}
	frame, err := json.Marshal(models.NewSnapshot(list))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return errSessionClosed
	}

	frames := append([][]byte{frame}, s.pending...)
	s.pending = nil
	for _, f := range frames {
		select {
		case s.send <- f:
		default:
			return errors.New("send queue full before session start")
		}
	}
	s.state = StateJoined

	s.log.Debug().Int("markers", len(list)).Msg("session joined")
	return nil
}

// start launches the reader and writer goroutines.
func (s *Session) start() {
	s.mu.Lock()
	if s.state != StateJoined {
		s.mu.Unlock()
		return
	}
	s.state = StateActive
	s.started = true
	s.mu.Unlock()

	go s.writePump()
	go s.readPump()
}

// Close tears the session down once: it leaves the registry, stops both
// goroutines and closes the connection. Safe to call from any goroutine,
// any number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		s.state = StateClosed
		started := s.started
		s.pending = nil
		s.mu.Unlock()

		close(s.done)
		s.cancel()
		s.registry.Leave(s.seed, s)

		// The writer closes the connection once it has sent the close frame.
		if !started && s.conn != nil {
			_ = s.conn.Close()
		}

		s.log.Debug().Str("from_state", prev.String()).Msg("session closed")
	})
}

func (s *Session) pingPeriod() time.Duration {
	return (s.cfg.PongWait * 9) / 10
}

func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait)); err != nil {
		s.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				s.log.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("throttled").Inc()
			s.log.Debug().Msg("message dropped by rate limiter")
			continue
		}

		s.handleMessage(data)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
		s.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
				s.log.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				s.log.Debug().Err(err).Msg("failed to write frame")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
				s.log.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteWait))
			return
		}
	}
}

func (s *Session) handleMessage(data []byte) {
	var msg models.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.WSErrors.WithLabelValues("malformed").Inc()
		s.log.Debug().Err(err).Msg("ignoring malformed message")
		return
	}

	switch msg.Op {
	case models.OpAdd:
		metrics.WSMessagesReceived.WithLabelValues(models.OpAdd).Inc()
		s.handleAdd(msg.Marker)
	case models.OpRemove:
		metrics.WSMessagesReceived.WithLabelValues(models.OpRemove).Inc()
		s.handleRemove(msg.ID)
	default:
		metrics.WSMessagesReceived.WithLabelValues("unknown").Inc()
		s.log.Debug().Str("op", msg.Op).Msg("ignoring unknown op")
	}
}

// handleAdd persists a marker bound to the session's seed. Any seed the
// client put in the payload is not part of MarkerInput and is dropped.
func (s *Session) handleAdd(in *models.MarkerInput) {
	m, err := s.service.Create(s.ctx, s.seed, in, markers.SessionOrigin(s.id))
	if err != nil {
		if errors.Is(err, markers.ErrInvalidMarker) {
			s.log.Debug().Err(err).Msg("ignoring invalid marker")
		} else {
			metrics.WSErrors.WithLabelValues("store").Inc()
			s.log.Warn().Err(err).Msg("failed to create marker")
		}
		return
	}
	s.reply(models.NewAdded(m))
}

// handleRemove deletes a marker of the session's seed. Unknown ids and
// markers of other seeds are ignored.
func (s *Session) handleRemove(id string) {
	if id == "" {
		return
	}
	err := s.service.Remove(s.ctx, s.seed, id, markers.SessionOrigin(s.id))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.WSErrors.WithLabelValues("store").Inc()
			s.log.Warn().Err(err).Str("marker_id", id).Msg("failed to remove marker")
		}
		return
	}
	s.reply(models.NewRemoved(id))
}

// reply sends event to this session only. A full queue closes the session.
func (s *Session) reply(event models.Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode reply")
		return
	}
	if !s.Enqueue(frame) {
		s.Close()
	}
}
