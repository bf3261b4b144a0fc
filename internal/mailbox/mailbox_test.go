package mailbox

import (
	"testing"
	"time"
)

func TestPushDrainFIFO(t *testing.T) {
	m := New("dessera", Auth)
	m.Push("one")
	m.Push("two")
	m.Push("three")

	var got []any
	if err := m.Drain(func(resp any) error {
		got = append(got, resp)
		return nil
	}); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	want := []any{"one", "two", "three"}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("got[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestDrainStopsOnError(t *testing.T) {
	m := New("dessera", Auth)
	m.Push("one")
	m.Push("two")

	called := 0
	err := m.Drain(func(resp any) error {
		called++
		return errStop
	})
	if err != errStop {
		t.Fatalf("Drain() error = %v, want errStop", err)
	}
	if called != 1 {
		t.Fatalf("emit called %d times, want 1", called)
	}

	var remaining []any
	if err := m.Drain(func(resp any) error {
		remaining = append(remaining, resp)
		return nil
	}); err != nil {
		t.Fatalf("second Drain() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "two" {
		t.Errorf("remaining = %v, want [two]", remaining)
	}
}

var errStop = errorString("stop")

type errorString string

func (e errorString) Error() string { return string(e) }

func TestCachePushDoesNotSignal(t *testing.T) {
	m := New("dessera", Cache)
	m.Push("buffered")

	done := make(chan struct{})
	fired := make(chan bool, 1)
	go func() {
		fired <- m.Await(done)
	}()

	select {
	case <-fired:
		t.Fatal("Await returned before SetAuth signaled it")
	case <-time.After(20 * time.Millisecond):
	}
	close(done)
	<-fired
}

func TestSetAuthSignalsPendingAwait(t *testing.T) {
	m := New("dessera", Cache)
	m.Push("buffered")

	done := make(chan struct{})
	fired := make(chan bool, 1)
	go func() {
		fired <- m.Await(done)
	}()

	time.Sleep(10 * time.Millisecond)
	m.SetAuth()

	select {
	case ok := <-fired:
		if !ok {
			t.Fatal("Await() = false, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("Await never woke after SetAuth")
	}
}

func TestAwaitCoalescesMultipleSignals(t *testing.T) {
	m := New("dessera", Auth)
	m.Push("a")
	m.Push("b")
	m.Push("c")

	done := make(chan struct{})
	defer close(done)

	if !m.Await(done) {
		t.Fatal("Await() = false, want true")
	}

	select {
	case <-m.notify:
		t.Fatal("notifier fired a second time for coalesced pushes")
	default:
	}
}

func TestRename(t *testing.T) {
	m := New("dessera", Auth)
	m.Rename("scarlet")
	if got := m.Name(); got != "scarlet" {
		t.Errorf("Name() = %q, want scarlet", got)
	}
}
