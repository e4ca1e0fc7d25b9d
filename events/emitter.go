package events

import (
	"sync"

	"go.uber.org/zap"
)

// EventType labels what happened.
type EventType string

const (
	EventBlockCommitted  EventType = "block_committed"
	EventTxValidated     EventType = "tx_validated"
	EventTxRejected      EventType = "tx_rejected"
	EventSessionStarted  EventType = "session_started"
	EventSessionComplete EventType = "session_completed"
	EventSessionFailed   EventType = "session_failed"
)

// Event carries a typed payload emitted after a state change.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	TxID      string         `json:"tx_id,omitempty"`
	Data      map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *zap.Logger
}

// NewEmitter creates an Emitter with no subscribers, logging through
// logger the same way ledger and coordination do. A nil logger is
// treated as zap.NewNop().
func NewEmitter(logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{handlers: make(map[EventType][]Handler), logger: logger}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously.
// Each handler is guarded by panic recovery so a misbehaving subscriber
// cannot crash the node or halt block production.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("event handler panicked",
						zap.String("event_type", string(ev.Type)),
						zap.Any("recovered", r))
				}
			}()
			h(ev)
		}()
	}
}
