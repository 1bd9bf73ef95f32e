package memory

import (
	"context"
	"sync"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
)

// Published is one recorded Publish call.
type Published struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps every published event in memory so tests can inspect what
// was emitted. It never drops anything and is not meant for a running server.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, topic string, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

// Events returns a copy of everything published so far, oldest first.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event published on topic.
func (r *Recorder) Last(topic string) (Published, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Topic == topic {
			return r.events[i], true
		}
	}
	return Published{}, false
}

var _ interfaces.EventPublisher = (*Recorder)(nil)
