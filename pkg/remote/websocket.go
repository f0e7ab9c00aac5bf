package remote

import (
	"time"

	"github.com/gorilla/websocket"

	errs "github.com/vango-dev/sizewatch/internal/errors"
	"github.com/vango-dev/sizewatch/pkg/protocol"
)

// ReadLoop reads frames from the client until the connection closes.
// Listener callbacks run on this goroutine.
func (s *Session) ReadLoop() {
	defer s.Close()

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) && !s.closed.Load() {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.lastActive.Store(time.Now().UnixNano())

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.sendError(protocol.ErrInvalidFrame, "malformed frame")
			continue
		}
		s.monitor.FrameReceived(frame.Type, len(msg))

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)
		case protocol.FrameControl:
			if !s.handleControlFrame(frame.Payload) {
				return
			}
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type.String())
			s.sendError(protocol.ErrInvalidFrame, "unexpected frame type")
		}
	}
}

// WriteLoop drains the send queue and sends periodic pings.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.send:
			if err := s.writeFrame(f); err != nil {
				s.logger.Debug("write error", "error", err)
				s.Close()
				return
			}
		case <-ticker.C:
			ping := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{
				Type:      protocol.ControlPing,
				Timestamp: uint64(time.Now().UnixMilli()),
			}))
			if err := s.writeFrame(ping); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleEventFrame(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Error("event decode error", "error", err)
		s.sendError(protocol.ErrInvalidEvent, "invalid event format")
		return
	}

	switch ev.Type {
	case protocol.EventAnnounce:
		s.handleAnnounce(ev)
	case protocol.EventInstalled:
		n, ok := s.lookup(ev.ID)
		if !ok {
			return
		}
		n.setSize(ev.Width, ev.Height)
		s.finishInstall(n, nil)
	case protocol.EventInstallFailed:
		n, ok := s.lookup(ev.ID)
		if !ok {
			return
		}
		s.finishInstall(n, errs.New("E120").WithDetail(ev.Reason).Wrap(ErrInstallFailed))
	case protocol.EventResize:
		n, ok := s.lookup(ev.ID)
		if !ok {
			return
		}
		n.setSize(ev.Width, ev.Height)
		s.provider.Notify(n)
	}
}

func (s *Session) handleAnnounce(ev *protocol.Event) {
	s.mu.Lock()
	if n, ok := s.nodes[ev.ID]; ok {
		s.mu.Unlock()
		// Re-announce after a client-side re-render refreshes the size only.
		n.setSize(ev.Width, ev.Height)
		return
	}
	if s.config.MaxNodes > 0 && len(s.nodes) >= s.config.MaxNodes {
		s.mu.Unlock()
		s.logger.Warn("node limit reached", "limit", s.config.MaxNodes, "name", ev.Name)
		s.sendError(protocol.ErrRateLimited, "node limit reached")
		return
	}
	n := &Node{id: ev.ID, name: ev.Name, session: s}
	n.setSize(ev.Width, ev.Height)
	s.nodes[ev.ID] = n
	s.mu.Unlock()

	s.logger.Debug("node announced", "node", n.name, "wire_id", n.id, "size", n.Size().String())
	if s.OnNode != nil {
		s.OnNode(s, n)
	}
}

// lookup returns the announced node or reports an unknown element to the client.
func (s *Session) lookup(id uint64) (*Node, bool) {
	n, ok := s.Node(id)
	if !ok {
		s.logger.Warn("event for unknown node", "wire_id", id)
		s.sendError(protocol.ErrUnknownElement, errs.New("E143").WithDetailf("wire id %d", id).Error())
	}
	return n, ok
}

func (s *Session) finishInstall(n *Node, err error) {
	s.mu.Lock()
	done, ok := s.pending[n.id]
	delete(s.pending, n.id)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("install answer without request", "node", n.name)
		return
	}
	done(err)
}

// handleControlFrame returns false when the client asked to close.
func (s *Session) handleControlFrame(payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Error("control decode error", "error", err)
		return true
	}

	switch c.Type {
	case protocol.ControlPing:
		_ = s.enqueue(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{
			Type:      protocol.ControlPong,
			Timestamp: c.Timestamp,
		})))
	case protocol.ControlPong:
		s.logger.Debug("received pong")
	case protocol.ControlClose:
		s.logger.Info("client closing", "reason", c.Reason.String(), "message", c.Message)
		return false
	}
	return true
}

func (s *Session) sendError(code protocol.ErrorCode, message string) {
	s.monitor.ProtocolError(code)
	_ = s.enqueue(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(&protocol.ErrorMessage{
		Code:    code,
		Message: message,
	})))
}
