// internal/game/connection.go
package game

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultOutboxSize is the buffer of each connection's outbound channel.
const DefaultOutboxSize = 64

// Connection is a single client's presence in a lobby. The transport drains OutChan.
type Connection struct {
	ID      uuid.UUID
	Cancel  context.CancelFunc
	OutChan chan GameEvent

	logger logrus.FieldLogger
}

// NewConnection creates a connection with a buffered outbox. cancel may be nil.
func NewConnection(cancel context.CancelFunc, logger logrus.FieldLogger) *Connection {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Connection{
		ID:      uuid.New(),
		Cancel:  cancel,
		OutChan: make(chan GameEvent, DefaultOutboxSize),
		logger:  logger,
	}
}

// Write pushes an event onto OutChan without blocking. Dropped events are logged.
func (c *Connection) Write(ev GameEvent) bool {
	select {
	case c.OutChan <- ev:
		return true
	default:
		c.logger.WithFields(logrus.Fields{
			"connection": c.ID,
			"event":      ev.Event,
		}).Warn("Outbox full, dropped event")
		return false
	}
}

// WriteError sends an ERROR event describing err.
func (c *Connection) WriteError(err error) {
	c.Write(ErrorEvent(err))
}

// Close cancels the transport context, which ends both pumps.
func (c *Connection) Close() {
	if c.Cancel != nil {
		c.Cancel()
	}
}
