package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	var received Event
	var wg sync.WaitGroup
	wg.Add(1)

	unsub := bus.Subscribe(TaskStarted, func(e Event) {
		received = e
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: TaskStarted, Data: "task-1"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if received.Type != TaskStarted {
			t.Errorf("expected TaskStarted, got %v", received.Type)
		}
		if received.Data != "task-1" {
			t.Errorf("expected 'task-1', got %v", received.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var count int32
	var wg sync.WaitGroup
	wg.Add(2)

	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
		wg.Done()
	})
	defer unsub()

	bus.Publish(Event{Type: TaskStarted})
	bus.Publish(Event{Type: PermissionRequired})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if atomic.LoadInt32(&count) != 2 {
			t.Errorf("expected 2 deliveries, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var calls int32
	unsub := bus.Subscribe(TaskStarted, func(e Event) {
		atomic.AddInt32(&calls, 1)
	})
	unsub()

	bus.PublishSync(Event{Type: TaskStarted})

	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected 0 calls after unsubscribe, got %d", calls)
	}
}

func TestBus_PublishSyncIsOrdered(t *testing.T) {
	bus := NewBus()

	var seen []EventType
	bus.Subscribe(TaskStarted, func(e Event) { seen = append(seen, e.Type) })
	bus.Subscribe(TaskStarted, func(e Event) { seen = append(seen, e.Type) })

	bus.PublishSync(Event{Type: TaskStarted})

	if len(seen) != 2 {
		t.Fatalf("expected 2 synchronous deliveries, got %d", len(seen))
	}
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	bus := NewBus()

	var calls int32
	bus.Subscribe(TaskStarted, func(e Event) { atomic.AddInt32(&calls, 1) })

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	bus.PublishSync(Event{Type: TaskStarted})
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("closed bus should not deliver events")
	}
}
