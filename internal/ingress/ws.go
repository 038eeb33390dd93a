// ABOUTME: WebSocket ingress
// ABOUTME: Each binary frame is a channel byte plus audio; completion is reported per frame
package ingress

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voxroute/voxroute/internal/playback"
	"github.com/voxroute/voxroute/pkg/protocol"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// session is one connected producer
type session struct {
	id       string
	conn     *websocket.Conn
	sendChan chan protocol.Message
	done     chan struct{}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", "error", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	sess := &session{
		id:       r.RemoteAddr,
		conn:     conn,
		sendChan: make(chan protocol.Message, 64),
		done:     make(chan struct{}),
	}
	s.logger.Info("producer connected", "remote", sess.id)

	s.handleSession(r.Context(), sess)
	s.logger.Info("producer disconnected", "remote", sess.id)
}

// handleSession reads frames until the producer leaves or the server stops
func (s *Server) handleSession(ctx context.Context, sess *session) {
	defer sess.conn.Close()

	var writers sync.WaitGroup
	writers.Add(1)
	go func() {
		defer writers.Done()
		s.sessionWriter(sess)
	}()

	ctx, cancel := context.WithCancel(ctx)

	var waiters sync.WaitGroup
	defer func() {
		close(sess.done)
		cancel()
		waiters.Wait()
		close(sess.sendChan)
		writers.Wait()
	}()

	s.send(sess, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
		Channels: s.config.Settings.Count(),
	})

	// A larger frame fails the read and ends the session
	sess.conn.SetReadLimit(s.config.MaxBodyBytes + protocol.FrameHeaderSize)

	// Unblock the read loop on shutdown
	go func() {
		select {
		case <-s.stopChan:
			sess.conn.Close()
		case <-sess.done:
		}
	}()

	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", "remote", sess.id, "error", err)
			}
			return
		}

		if msgType != websocket.BinaryMessage {
			s.send(sess, protocol.TypeError, protocol.ErrorPayload{Message: "expected binary audio frame"})
			continue
		}

		ch, audio, err := protocol.DecodeFrame(data)
		if err != nil {
			s.send(sess, protocol.TypeError, protocol.ErrorPayload{Message: err.Error()})
			continue
		}

		ticket := s.config.Scheduler.Enqueue(ch, audio, nil)

		waiters.Add(1)
		go func() {
			defer waiters.Done()
			s.reportCompletion(ctx, sess, ticket)
		}()
	}
}

func (s *Server) reportCompletion(ctx context.Context, sess *session, ticket *playback.Ticket) {
	if s.await(ctx, ticket) {
		s.send(sess, protocol.TypePlaybackDone, protocol.PlaybackDone{
			ID:      ticket.ID,
			Channel: ticket.Channel,
			Outcome: ticket.Outcome().String(),
		})
		return
	}

	select {
	case <-sess.done:
		// Producer is gone; nothing to report
	default:
		s.send(sess, protocol.TypePlaybackTimeout, protocol.PlaybackTimeout{
			ID:      ticket.ID,
			Channel: ticket.Channel,
		})
	}
}

// send queues a message without blocking the caller
func (s *Server) send(sess *session, msgType string, payload interface{}) {
	select {
	case sess.sendChan <- protocol.Message{Type: msgType, Payload: payload}:
	default:
		s.logger.Warn("producer send buffer full, dropping message", "remote", sess.id, "type", msgType)
	}
}

// sessionWriter owns all writes to the connection
func (s *Server) sessionWriter(sess *session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sess.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			sess.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.drain(sess)
				return
			}

		case <-ticker.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				s.drain(sess)
				return
			}
		}
	}
}

// drain discards queued messages after a write failure so senders never block
func (s *Server) drain(sess *session) {
	go func() {
		for range sess.sendChan {
		}
	}()
}
