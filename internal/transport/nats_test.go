package transport

import (
	"sync/atomic"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func newTestNATS(t *testing.T, url string) *NATS {
	t.Helper()
	n, err := NewNATS(url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() { n.Close() })
	return n
}

func TestNATS_ImplementsTransport(t *testing.T) {
	var _ Transport = (*NATS)(nil)
}

func TestNATS_ReceivesMessages(t *testing.T) {
	url := startTestNATS(t)
	sub := newTestNATS(t, url)
	pub := newTestNATS(t, url)

	ch := make(chan Message, 1)
	s, err := sub.Subscribe("/robot/speed", func(m Message) { ch <- m })
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer s.Unsubscribe()

	if s.Subject() != "/robot/speed" {
		t.Errorf("Subject() = %q", s.Subject())
	}

	if err := pub.Publish("/robot/speed", []byte(`{"data":1.5}`)); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	pub.Flush()

	select {
	case m := <-ch:
		if string(m.Data) != `{"data":1.5}` || m.Subject != "/robot/speed" {
			t.Errorf("unexpected message: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestNATS_UnsubscribeIsBarrier(t *testing.T) {
	url := startTestNATS(t)
	sub := newTestNATS(t, url)
	pub := newTestNATS(t, url)

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	s, err := sub.Subscribe("a", func(Message) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	})
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	pub.Publish("a", []byte("1"))
	pub.Flush()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	done := make(chan struct{})
	go func() {
		s.Unsubscribe()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Unsubscribe returned while a handler was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Unsubscribe did not return after handler finished")
	}

	before := calls.Load()
	pub.Publish("a", []byte("2"))
	pub.Flush()
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != before {
		t.Fatalf("handler ran after Unsubscribe: %d calls, want %d", got, before)
	}
}

func TestNATS_DoubleUnsubscribe(t *testing.T) {
	url := startTestNATS(t)
	n := newTestNATS(t, url)

	s, err := n.Subscribe("a", func(Message) {})
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	if err := s.Unsubscribe(); err != nil {
		t.Fatalf("first Unsubscribe: %v", err)
	}
	if err := s.Unsubscribe(); err != nil {
		t.Fatalf("second Unsubscribe: %v", err)
	}
}

func TestNATS_UnsubscribeAfterClose(t *testing.T) {
	url := startTestNATS(t)
	n, err := NewNATS(url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	s, err := n.Subscribe("a", func(Message) {})
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	n.Close()
	if err := s.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe after Close: %v", err)
	}
}

func TestNATS_UnsubscribeDuringMessages(t *testing.T) {
	url := startTestNATS(t)
	sub := newTestNATS(t, url)
	pub := newTestNATS(t, url)

	s, err := sub.Subscribe("a", func(Message) {})
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = pub.Publish("a", []byte("x"))
		}
		pub.Flush()
	}()

	// Unsubscribe while messages are being sent -- must not panic.
	s.Unsubscribe()
	<-done
}

func TestNATS_ReconnectHandlerOption(t *testing.T) {
	url := startTestNATS(t)

	n, err := NewNATS(url, nats.ReconnectHandler(func(*nats.Conn) {}))
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer n.Close()

	if !n.conn.IsConnected() {
		t.Fatal("expected connection to be alive")
	}
}

func TestNewNATS_BadURL(t *testing.T) {
	if _, err := NewNATS("nats://127.0.0.1:1", nats.MaxReconnects(0)); err == nil {
		t.Fatal("expected connection error")
	}
}
