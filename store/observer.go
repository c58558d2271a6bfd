package store

import (
	"time"

	"go.uber.org/zap"
)

type EventKind string

const (
	EventLoaded    EventKind = "loaded"
	EventViewed    EventKind = "viewed"
	EventCommented EventKind = "commented"
	EventReacted   EventKind = "reacted"
	EventSaved     EventKind = "saved"
	EventPublished EventKind = "published"
	EventDeleted   EventKind = "deleted"
)

// Event describes a completed change. PostID is empty for EventLoaded.
type Event struct {
	Kind   EventKind
	PostID string
	At     time.Time
}

// Observer is called after the store lock is released.
type Observer func(Event)

func (s *Store) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

func (s *Store) notify(kind EventKind, id string) {
	s.obsMu.RLock()
	observers := s.observers
	s.obsMu.RUnlock()
	if len(observers) == 0 {
		return
	}
	ev := Event{Kind: kind, PostID: id, At: s.now()}
	for _, o := range observers {
		o(ev)
	}
}

// AuditLogger logs every store event at info, views at debug.
func AuditLogger(log *zap.Logger) Observer {
	return func(ev Event) {
		fields := []zap.Field{zap.String("event", string(ev.Kind)), zap.String("post_id", ev.PostID)}
		if ev.Kind == EventViewed {
			log.Debug("store event", fields...)
			return
		}
		log.Info("store event", fields...)
	}
}
