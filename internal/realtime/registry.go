package realtime

import (
	"context"
	"sync"

	"quickbite/internal/logger"
	"quickbite/internal/ports"
)

// Registry maps topic names to the set of sessions subscribed to them. It is
// the single shared mutable structure of the subsystem; every mutation is
// serialized behind one mutex so concurrent joins, leaves, publishes and
// session removals never lose updates.
type Registry struct {
	mu     sync.Mutex
	topics map[string]map[*Session]struct{}
	logger *logger.Logger
}

var _ ports.TopicPublisher = (*Registry)(nil)

// NewRegistry constructs an empty registry.
func NewRegistry(logger *logger.Logger) *Registry {
	return &Registry{
		topics: make(map[string]map[*Session]struct{}),
		logger: logger,
	}
}

// Join adds the session to the topic, creating the topic lazily. Joining a
// topic twice has the same effect as joining once.
func (r *Registry) Join(topic string, s *Session) {
	if topic == "" || s == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.topics[topic]
	if !ok {
		members = make(map[*Session]struct{})
		r.topics[topic] = members
	}
	members[s] = struct{}{}
	s.topics[topic] = struct{}{}
}

// Leave removes the session from the topic. Empty topics are garbage
// collected; Join recreates them lazily.
func (r *Registry) Leave(topic string, s *Session) {
	if s == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(topic, s)
}

// RemoveSession detaches the session from every topic it joined. Idempotent:
// removing an already-removed session is a no-op.
func (r *Registry) RemoveSession(s *Session) {
	if s == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range s.topics {
		r.leaveLocked(topic, s)
	}
}

func (r *Registry) leaveLocked(topic string, s *Session) {
	if members, ok := r.topics[topic]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}
	delete(s.topics, topic)
}

// Publish delivers event to every session currently in the topic and returns
// how many sessions it reached. Delivery is best-effort: a session whose
// connection already failed is skipped and must not block the rest.
func (r *Registry) Publish(topic string, event any) int {
	// snapshot membership under the lock, write outside it so one slow
	// connection cannot stall joins or other publishes
	r.mu.Lock()
	members := make([]*Session, 0, len(r.topics[topic]))
	for s := range r.topics[topic] {
		members = append(members, s)
	}
	r.mu.Unlock()

	delivered := 0
	for _, s := range members {
		if err := s.Send(event); err != nil {
			r.logger.Debug(context.Background(), "publish_skip_dead_session",
				"Skipping session with failed connection",
				map[string]any{"topic": topic, "session_id": s.ID})
			continue
		}
		delivered++
	}

	if delivered > 0 {
		eventsPublished.Add(float64(delivered))
	}
	return delivered
}

// MemberCount reports the current size of a topic's member set.
func (r *Registry) MemberCount(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topic])
}
