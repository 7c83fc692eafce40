package dispatch

import (
	"sync"

	"go.uber.org/zap"
)

// Channel is a single connected observer. Send must not block: transport
// implementations queue the event and drop it if the peer is slow or gone.
type Channel interface {
	ID() string
	Send(event string, payload interface{}) error
}

// Registry maps connected channels to interest scopes. Every connected
// channel is implicitly in the global scope; a channel may additionally join
// any number of per-case scopes.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel            // all connected channels (global scope)
	cases    map[string]map[string]Channel // caseID -> channel id -> channel
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]Channel),
		cases:    make(map[string]map[string]Channel),
	}
}

// Connect registers a channel for global-scope broadcasts
func (r *Registry) Connect(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.ID()] = ch
}

// Join adds the channel to the scope for one case
func (r *Registry) Join(ch Channel, caseID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.cases[caseID]
	if !ok {
		members = make(map[string]Channel)
		r.cases[caseID] = members
	}
	members[ch.ID()] = ch
}

// Leave removes the channel from the scope for one case
func (r *Registry) Leave(ch Channel, caseID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.cases[caseID]; ok {
		delete(members, ch.ID())
		if len(members) == 0 {
			delete(r.cases, caseID)
		}
	}
}

// Drop removes the channel from every scope. Safe to call multiple times and
// safe to race with an in-flight publish.
func (r *Registry) Drop(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, ch.ID())
	for caseID, members := range r.cases {
		delete(members, ch.ID())
		if len(members) == 0 {
			delete(r.cases, caseID)
		}
	}
}

// PublishToCase sends an event to the membership snapshot of one case scope.
// Per-channel failures are logged and dropped; they never affect delivery to
// the other channels.
func (r *Registry) PublishToCase(caseID, event string, payload interface{}) {
	for _, ch := range r.caseSnapshot(caseID) {
		if err := ch.Send(event, payload); err != nil {
			zap.S().Debugw("failed to deliver case event",
				"channel", ch.ID(),
				"caseId", caseID,
				"event", event,
				"error", err,
			)
		}
	}
}

// Broadcast sends an event to the membership snapshot of the global scope
func (r *Registry) Broadcast(event string, payload interface{}) {
	for _, ch := range r.globalSnapshot() {
		if err := ch.Send(event, payload); err != nil {
			zap.S().Debugw("failed to deliver broadcast event",
				"channel", ch.ID(),
				"event", event,
				"error", err,
			)
		}
	}
}

func (r *Registry) caseSnapshot(caseID string) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.cases[caseID]
	snapshot := make([]Channel, 0, len(members))
	for _, ch := range members {
		snapshot = append(snapshot, ch)
	}
	return snapshot
}

func (r *Registry) globalSnapshot() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		snapshot = append(snapshot, ch)
	}
	return snapshot
}
