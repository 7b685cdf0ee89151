package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	alertdomain "github.com/medtrack/pharmacy-portal/internal/alert/domain"
)

// Mock sink collecting applied snapshots
type mockSink struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (m *mockSink) Publish(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
}

func (m *mockSink) last() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return Snapshot{}, false
	}
	return m.snapshots[len(m.snapshots)-1], true
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

func payloadWithLowStock(name string) alertdomain.PollPayload {
	qty := 1
	return alertdomain.PollPayload{
		LowStock:     []alertdomain.PollEntry{{Name: name, StockQuantity: &qty}},
		ExpiringSoon: []alertdomain.PollEntry{},
		Expired:      []alertdomain.PollEntry{},
	}
}

func TestScheduler_ImmediatePullOnStart(t *testing.T) {
	sink := &mockSink{}
	pulled := make(chan struct{}, 1)

	s := New(1, func(ctx context.Context) (alertdomain.PollPayload, int64, error) {
		select {
		case pulled <- struct{}{}:
		default:
		}
		return payloadWithLowStock("Paracetamol"), 3, nil
	}, sink, nil)
	s.SetInterval(time.Hour) // only the immediate pull should fire

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-pulled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate pull on start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("snapshot never published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap, _ := sink.last()
	if snap.UnreadCount != 3 || len(snap.Alerts.LowStock) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestScheduler_RepeatsAtInterval(t *testing.T) {
	sink := &mockSink{}
	var mu sync.Mutex
	pulls := 0

	s := New(1, func(ctx context.Context) (alertdomain.PollPayload, int64, error) {
		mu.Lock()
		pulls++
		mu.Unlock()
		return payloadWithLowStock("x"), 0, nil
	}, sink, nil)
	s.SetInterval(20 * time.Millisecond)

	s.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	s.Stop()

	mu.Lock()
	got := pulls
	mu.Unlock()
	if got < 3 {
		t.Fatalf("expected at least 3 pulls (immediate plus ticks), got %d", got)
	}
}

func TestScheduler_StopCancelsTimer(t *testing.T) {
	sink := &mockSink{}
	var mu sync.Mutex
	pulls := 0

	s := New(1, func(ctx context.Context) (alertdomain.PollPayload, int64, error) {
		mu.Lock()
		pulls++
		mu.Unlock()
		return payloadWithLowStock("x"), 0, nil
	}, sink, nil)
	s.SetInterval(10 * time.Millisecond)

	s.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	s.Stop()

	mu.Lock()
	after := pulls
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	final := pulls
	mu.Unlock()
	if final != after {
		t.Fatalf("pulls continued after stop: %d then %d", after, final)
	}
}

// Two polls where the first response arrives after the second: the final
// displayed state must reflect the newer poll, not the stale one.
func TestScheduler_StaleResponseDiscarded(t *testing.T) {
	sink := &mockSink{}
	s := New(1, nil, sink, nil)

	ctx := context.Background()

	newer := Snapshot{Generation: 2, Alerts: payloadWithLowStock("fresh"), UnreadCount: 7}
	stale := Snapshot{Generation: 1, Alerts: payloadWithLowStock("stale"), UnreadCount: 99}

	s.apply(ctx, newer)
	s.apply(ctx, stale)

	snap, ok := sink.last()
	if !ok {
		t.Fatal("no snapshot published")
	}
	if snap.Generation != 2 || snap.Alerts.LowStock[0].Name != "fresh" {
		t.Fatalf("stale response overwrote fresh state: %+v", snap)
	}
	if sink.count() != 1 {
		t.Fatalf("stale snapshot should not be published at all, got %d publishes", sink.count())
	}
}

// Sink that parks inside its first Publish until released
type parkingSink struct {
	mockSink
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *parkingSink) Publish(s Snapshot) {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	p.mockSink.Publish(s)
}

// An older response whose publish is slow must not land after a newer one.
// The newer apply has to wait for the in-flight publish, so the last
// published snapshot always carries the highest generation.
func TestScheduler_SlowOlderPublishCannotLandLast(t *testing.T) {
	sink := &parkingSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(1, nil, sink, nil)
	ctx := context.Background()

	older := Snapshot{Generation: 1, Alerts: payloadWithLowStock("stale"), UnreadCount: 99}
	newer := Snapshot{Generation: 2, Alerts: payloadWithLowStock("fresh"), UnreadCount: 7}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.apply(ctx, older)
	}()
	<-sink.entered // older response passed the gate and is mid-publish

	go func() {
		defer wg.Done()
		s.apply(ctx, newer)
	}()
	time.Sleep(20 * time.Millisecond) // let the newer apply reach the gate
	close(sink.release)
	wg.Wait()

	if got := sink.count(); got != 2 {
		t.Fatalf("expected both snapshots published, got %d", got)
	}
	snap, _ := sink.last()
	if snap.Generation != 2 || snap.Alerts.LowStock[0].Name != "fresh" {
		t.Fatalf("stale publish landed last: %+v", snap)
	}
}

func TestScheduler_StaleResponseDiscardedEndToEnd(t *testing.T) {
	sink := &mockSink{}

	// First pull stalls until released; second completes immediately.
	release := make(chan struct{})
	var mu sync.Mutex
	call := 0

	s := New(1, func(ctx context.Context) (alertdomain.PollPayload, int64, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			<-release
			return payloadWithLowStock("stale"), 99, nil
		}
		return payloadWithLowStock("fresh"), 7, nil
	}, sink, nil)
	s.SetInterval(20 * time.Millisecond)

	s.Start(context.Background())

	// Wait for the second (fresh) snapshot to land, then let the first
	// (stale) response through.
	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("fresh snapshot never published")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	snap, _ := sink.last()
	if snap.Alerts.LowStock[0].Name != "fresh" {
		t.Fatalf("final state is the stale response: %+v", snap)
	}
}

func TestScheduler_PullFailureFlagsSnapshot(t *testing.T) {
	sink := &mockSink{}

	s := New(1, func(ctx context.Context) (alertdomain.PollPayload, int64, error) {
		return alertdomain.PollPayload{}, 0, errors.New("backend unreachable")
	}, sink, nil)
	s.SetInterval(time.Hour)

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("failure snapshot never published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap, _ := sink.last()
	if !snap.Failed {
		t.Fatalf("expected failed snapshot, got %+v", snap)
	}
}
