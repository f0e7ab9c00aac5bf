package protocol

// EventType identifies a client → server probe event.
type EventType uint8

const (
	EventAnnounce      EventType = 0x01 // Element is available for probing
	EventInstalled     EventType = 0x02 // Probe attached
	EventInstallFailed EventType = 0x03 // Probe could not be attached
	EventResize        EventType = 0x31 // Observed size change
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	switch et {
	case EventAnnounce:
		return "Announce"
	case EventInstalled:
		return "Installed"
	case EventInstallFailed:
		return "InstallFailed"
	case EventResize:
		return "Resize"
	default:
		return "Unknown"
	}
}

// Event is a probe event. Which fields are meaningful depends on Type:
//
//	Announce:      ID, Name, Width, Height
//	Installed:     ID, Width, Height
//	InstallFailed: ID, Reason
//	Resize:        ID, Width, Height
type Event struct {
	Type   EventType
	ID     uint64
	Name   string
	Width  int
	Height int
	Reason string
}

// EncodeEvent encodes an event payload.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteByte(byte(ev.Type))
	e.WriteUvarint(ev.ID)
	switch ev.Type {
	case EventAnnounce:
		e.WriteString(ev.Name)
		e.WriteSvarint(int64(ev.Width))
		e.WriteSvarint(int64(ev.Height))
	case EventInstalled, EventResize:
		e.WriteSvarint(int64(ev.Width))
		e.WriteSvarint(int64(ev.Height))
	case EventInstallFailed:
		e.WriteString(ev.Reason)
	}
	return e.Bytes()
}

// DecodeEvent decodes an event payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ev := &Event{Type: EventType(t)}
	if ev.ID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}

	switch ev.Type {
	case EventAnnounce:
		if ev.Name, err = d.ReadString(); err != nil {
			return nil, err
		}
		if err := readSize(d, ev); err != nil {
			return nil, err
		}
	case EventInstalled, EventResize:
		if err := readSize(d, ev); err != nil {
			return nil, err
		}
	case EventInstallFailed:
		if ev.Reason, err = d.ReadString(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownKind
	}
	return ev, d.finish()
}

func readSize(d *Decoder, ev *Event) error {
	w, err := d.ReadSvarint()
	if err != nil {
		return err
	}
	h, err := d.ReadSvarint()
	if err != nil {
		return err
	}
	if w < 0 || h < 0 {
		return ErrNegativeSize
	}
	ev.Width, ev.Height = int(w), int(h)
	return nil
}

// CommandType identifies a server → client probe command.
type CommandType uint8

const (
	CommandInstall   CommandType = 0x01
	CommandUninstall CommandType = 0x02
)

// String returns the string representation of the command type.
func (ct CommandType) String() string {
	switch ct {
	case CommandInstall:
		return "Install"
	case CommandUninstall:
		return "Uninstall"
	default:
		return "Unknown"
	}
}

// Command asks the client to attach or detach a probe.
type Command struct {
	Type CommandType
	ID   uint64
}

// EncodeCommand encodes a command payload.
func EncodeCommand(c *Command) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	e.WriteUvarint(c.ID)
	return e.Bytes()
}

// DecodeCommand decodes a command payload.
func DecodeCommand(data []byte) (*Command, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	c := &Command{Type: CommandType(t)}
	if c.Type != CommandInstall && c.Type != CommandUninstall {
		return nil, ErrUnknownKind
	}
	if c.ID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	return c, d.finish()
}
