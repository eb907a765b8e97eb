// Package event provides the in-process pub/sub bus that fans task,
// permission, and profile lifecycle events out to the IPC layer, built on
// watermill's in-memory gochannel transport. There is deliberately no
// package-level default bus: every producer gets its Bus (or a BusEmitter
// over it) injected by the caller that owns the process wiring.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventType represents the type of internal event flowing through the bus.
// These back the IPC messages emitted by cmd/acta but are kept
// distinct from wire MessageType so internal fan-out can evolve independently
// of the envelope schema.
type EventType string

const (
	TaskStarted        EventType = "task.started"
	TaskPlanReady      EventType = "task.plan_ready"
	TaskStepStarted    EventType = "task.step_started"
	TaskStepCompleted  EventType = "task.step_completed"
	TaskCompleted      EventType = "task.completed"
	TaskFailed         EventType = "task.failed"
	TaskStopped        EventType = "task.stopped"
	PermissionRequired EventType = "permission.required"
	PermissionResolved EventType = "permission.resolved"
	ProfileSwitched    EventType = "profile.switched"
	ProfileUpdated     EventType = "profile.updated"
	TrustRuleAdded     EventType = "trust.rule_added"
)

// Event is one published occurrence: a type tag plus its payload.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Subscriber is a function that receives events.
type Subscriber func(event Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus manages pub/sub over a watermill gochannel. Typed subscriber lists are
// tracked directly so payloads keep their Go types end to end; the gochannel
// underneath is the seam for middleware or a distributed backend later.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[EventType][]subscriberEntry
	global      []subscriberEntry

	nextID uint64
	closed bool
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers: make(map[EventType][]subscriberEntry),
	}
}

func (b *Bus) newID() uint64 {
	return atomic.AddUint64(&b.nextID, 1)
}

// Subscribe registers a subscriber for a specific event type and returns an
// unsubscribe function. Subscribing to a closed bus is a no-op.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriberEntry{id: id, fn: fn})

	return func() {
		b.unsubscribe(eventType, id)
	}
}

// SubscribeAll registers a subscriber for every event type and returns an
// unsubscribe function. The IPC writer uses this to forward the whole stream.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.global = append(b.global, subscriberEntry{id: id, fn: fn})

	return func() {
		b.unsubscribeGlobal(id)
	}
}

func (b *Bus) unsubscribe(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, entry := range subs {
		if entry.id == id {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.global {
		if entry.id == id {
			b.global = append(b.global[:i], b.global[i+1:]...)
			break
		}
	}
}

func (b *Bus) collect(t EventType) []Subscriber {
	subs := make([]Subscriber, 0, len(b.subscribers[t])+len(b.global))
	for _, entry := range b.subscribers[t] {
		subs = append(subs, entry.fn)
	}
	for _, entry := range b.global {
		subs = append(subs, entry.fn)
	}
	return subs
}

// Publish delivers event to all matching subscribers, each on its own
// goroutine so a slow consumer never blocks the producer.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := b.collect(event.Type)
	b.mu.RUnlock()

	for _, sub := range subs {
		go sub(event)
	}
}

// PublishSync delivers event to all matching subscribers on the calling
// goroutine, preserving enqueue order across consecutive publishes. Task
// lifecycle events use this path so their enqueue order survives all the
// way to the IPC writer.
func (b *Bus) PublishSync(event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := b.collect(event.Type)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub(event)
	}
}

// Close drops all subscribers and closes the underlying gochannel. Publishes
// after Close are silently discarded.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[EventType][]subscriberEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}

// PubSub exposes the underlying watermill GoChannel for middleware or
// routing layered on top of the bus.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}

// BusEmitter adapts a Bus to the single-method Emit(eventType, payload)
// contract used throughout the orchestrator, permission coordinator, and
// agent service, so those packages depend on a minimal interface rather than
// the full Bus API.
type BusEmitter struct {
	Bus *Bus
}

// Emit publishes eventType/payload synchronously on the wrapped bus.
func (e BusEmitter) Emit(eventType EventType, payload any) {
	if e.Bus == nil {
		return
	}
	e.Bus.PublishSync(Event{Type: eventType, Data: payload})
}
