// Package protocol implements the binary wire protocol between the
// sizewatch server and the browser probe script.
//
// # Wire Format
//
// Every websocket message is one frame with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHandshake (0x00): ClientHello / ServerHello
//   - FrameEvent (0x01): Client → Server probe events
//   - FrameCommand (0x02): Server → Client probe commands
//   - FrameControl (0x03): Ping, pong, close
//   - FrameError (0x05): Error message
//
// # Encoding
//
//   - Varint: protobuf-style unsigned integers
//   - ZigZag: signed integers as unsigned varints
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width integers
//
// # Probe Flow
//
//	Client                                 Server
//	  │──── ClientHello ───────────────────>│
//	  │<─── ServerHello ────────────────────│
//	  │──── Announce{id, name, w, h} ──────>│  element is known
//	  │<─── Install{id} ────────────────────│  a listener wants it
//	  │──── Installed{id, w, h} ───────────>│  observer attached
//	  │──── Resize{id, w, h} ──────────────>│  every size change
//	  │<─── Uninstall{id} ──────────────────│
//
// Element IDs are assigned by the client and are only meaningful within
// one connection.
package protocol
