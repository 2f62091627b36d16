package discovery

import (
	"fmt"
	"time"
)

// EventKind distinguishes bulb arrival from departure
type EventKind int

const (
	// Appeared is emitted when a bulb answers discovery for the first time
	// (or again after it had expired)
	Appeared EventKind = iota + 1

	// Disappeared is emitted when a bulb has stopped answering
	Disappeared
)

func (k EventKind) String() string {
	switch k {
	case Appeared:
		return "appeared"
	case Disappeared:
		return "disappeared"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is a discovery notification from the LAN transport
type Event struct {
	Kind EventKind

	// ID is the bulb MAC address
	ID string

	// Addr is the UDP address the bulb answered from (empty on Disappeared)
	Addr string

	// At is when the transport observed the change
	At time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s", e.ID, e.Kind, e.Addr)
}
