package docstore

import "time"

// EventType identifies a connection lifecycle event.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventError        EventType = "error"
	EventDisconnected EventType = "disconnected"
)

// Event is delivered to listeners when the connection state changes.
type Event struct {
	Type EventType
	Err  error
	Time time.Time
}

// Listener receives connection events synchronously.
type Listener func(Event)

func notify(listeners []Listener, eventType EventType, err error) {
	ev := Event{Type: eventType, Err: err, Time: time.Now()}
	for _, l := range listeners {
		if l != nil {
			l(ev)
		}
	}
}
