package dispatch_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/firtrack/fir-tracking-api/dispatch"
)

type recordedEvent struct {
	Event   string
	Payload interface{}
}

type fakeChannel struct {
	id string

	mu      sync.Mutex
	events  []recordedEvent
	sendErr error
}

func newFakeChannel(id string) *fakeChannel {
	return &fakeChannel{id: id}
}

func (f *fakeChannel) ID() string { return f.id }

func (f *fakeChannel) Send(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.events = append(f.events, recordedEvent{Event: event, Payload: payload})
	return nil
}

func (f *fakeChannel) received() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

func TestRegistryFanOut(t *testing.T) {
	registry := dispatch.NewRegistry()

	caseXViewer1 := newFakeChannel("ch-1")
	caseXViewer2 := newFakeChannel("ch-2")
	dashboard := newFakeChannel("ch-3")
	caseYViewer := newFakeChannel("ch-4")

	for _, ch := range []*fakeChannel{caseXViewer1, caseXViewer2, dashboard, caseYViewer} {
		registry.Connect(ch)
	}
	registry.Join(caseXViewer1, "case-x")
	registry.Join(caseXViewer2, "case-x")
	registry.Join(caseYViewer, "case-y")

	registry.PublishToCase("case-x", "fir-updated", "payload")

	assert.Len(t, caseXViewer1.received(), 1)
	assert.Len(t, caseXViewer2.received(), 1)
	assert.Empty(t, dashboard.received())
	assert.Empty(t, caseYViewer.received())

	registry.Broadcast("fir-list-updated", "payload")

	// every connected channel gets the broadcast
	assert.Len(t, caseXViewer1.received(), 2)
	assert.Len(t, caseXViewer2.received(), 2)
	assert.Len(t, dashboard.received(), 1)
	assert.Len(t, caseYViewer.received(), 1)
	assert.Equal(t, "fir-list-updated", dashboard.received()[0].Event)
}

func TestRegistryLeave(t *testing.T) {
	registry := dispatch.NewRegistry()
	ch := newFakeChannel("ch-1")

	registry.Connect(ch)
	registry.Join(ch, "case-x")
	registry.Leave(ch, "case-x")

	registry.PublishToCase("case-x", "fir-updated", nil)
	assert.Empty(t, ch.received())

	// leaving a scope never left is a no-op
	registry.Leave(ch, "case-z")
}

func TestRegistryDropIsIdempotent(t *testing.T) {
	registry := dispatch.NewRegistry()
	ch := newFakeChannel("ch-1")

	registry.Connect(ch)
	registry.Join(ch, "case-x")
	registry.Join(ch, "case-y")

	registry.Drop(ch)
	registry.Drop(ch)

	registry.PublishToCase("case-x", "fir-updated", nil)
	registry.PublishToCase("case-y", "fir-updated", nil)
	registry.Broadcast("fir-list-updated", nil)
	assert.Empty(t, ch.received())
}

func TestRegistryFailedSendDoesNotAffectOthers(t *testing.T) {
	registry := dispatch.NewRegistry()

	broken := newFakeChannel("ch-broken")
	broken.sendErr = errors.New("peer gone")
	healthy := newFakeChannel("ch-healthy")

	registry.Connect(broken)
	registry.Connect(healthy)
	registry.Join(broken, "case-x")
	registry.Join(healthy, "case-x")

	registry.PublishToCase("case-x", "fir-updated", nil)
	assert.Len(t, healthy.received(), 1)
}

func TestRegistryConcurrentMembership(t *testing.T) {
	registry := dispatch.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		ch := newFakeChannel(string(rune('a' + i)))
		wg.Add(1)
		go func(ch *fakeChannel) {
			defer wg.Done()
			registry.Connect(ch)
			registry.Join(ch, "case-x")
			registry.PublishToCase("case-x", "fir-updated", nil)
			registry.Drop(ch)
		}(ch)
	}
	wg.Wait()

	registry.Broadcast("fir-list-updated", nil)
}
