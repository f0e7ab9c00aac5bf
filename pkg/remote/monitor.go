package remote

import "github.com/vango-dev/sizewatch/pkg/protocol"

// Monitor receives transport-level notifications from a session.
type Monitor interface {
	FrameReceived(ft protocol.FrameType, bytes int)
	FrameSent(ft protocol.FrameType, bytes int)
	ProtocolError(code protocol.ErrorCode)
}

type nopMonitor struct{}

func (nopMonitor) FrameReceived(protocol.FrameType, int) {}
func (nopMonitor) FrameSent(protocol.FrameType, int)     {}
func (nopMonitor) ProtocolError(protocol.ErrorCode)      {}
