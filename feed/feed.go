package feed

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Change operations carried by the feed. Consumers never depend on them:
// every event means "the list changed".
const (
	OpInsert  = "INSERT"
	OpUpdate  = "UPDATE"
	OpDelete  = "DELETE"
	OpUnknown = ""
)

// Event is one change notification from the push channel.
type Event struct {
	Op         string    `json:"op"`
	Table      string    `json:"table,omitempty"`
	ReceivedAt time.Time `json:"-"`
}

// Handler receives events. Sources may call it from their own goroutines.
type Handler func(Event)

// Subscription is a live registration with a Source. Close releases it.
type Subscription interface {
	Close() error
}

// Source is a push channel scoped to the list resource.
type Source interface {
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)
}

// ParseEvent decodes a payload. Anything that is not a JSON event, such as a
// bare "INSERT" from a database trigger, is still a change.
func ParseEvent(payload string) Event {
	ev := Event{ReceivedAt: time.Now()}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ev
	}
	if strings.HasPrefix(payload, "{") {
		if err := json.Unmarshal([]byte(payload), &ev); err == nil {
			ev.Op = strings.ToUpper(ev.Op)
			return ev
		}
	}
	switch op := strings.ToUpper(payload); op {
	case OpInsert, OpUpdate, OpDelete:
		ev.Op = op
	}
	return ev
}

// EncodeEvent builds the JSON payload published by writers.
func EncodeEvent(op, table string) string {
	b, _ := json.Marshal(Event{Op: op, Table: table})
	return string(b)
}
