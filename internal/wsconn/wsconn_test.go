package wsconn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type failingDialer struct{ calls int }

func (d *failingDialer) DialContext(ctx context.Context, url string, header map[string][]string) (*websocket.Conn, error) {
	d.calls++
	return nil, errors.New("dial refused")
}

func TestConnectFailureSchedulesRetryWithoutPanic(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	dialer := &failingDialer{}
	c := New("wss://example.invalid", dialer)

	var gotErr error
	c.OnConnectionError(func(err error) { gotErr = err })

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	<-done

	if dialer.calls == 0 {
		t.Fatal("expected at least one dial attempt")
	}
	if gotErr == nil {
		t.Error("expected OnConnectionError to have been invoked")
	}
	if c.retries == 0 {
		t.Error("expected a retry to have been scheduled after the failed dial")
	}
}

func TestFanOutDeliversOnlyToMatchingTopic(t *testing.T) {
	t.Parallel()
	c := New("wss://example.invalid", &failingDialer{})

	c.mu.Lock()
	chA := make(chan Message, 1)
	chB := make(chan Message, 1)
	c.subscribers["a"] = map[chan Message]struct{}{chA: {}}
	c.subscribers["b"] = map[chan Message]struct{}{chB: {}}
	c.mu.Unlock()

	c.fanOut(Message{Topic: "a", Payload: []byte(`1`)})

	select {
	case msg := <-chA:
		if string(msg.Payload) != "1" {
			t.Errorf("payload = %s, want 1", msg.Payload)
		}
	default:
		t.Fatal("topic a subscriber should have received the message")
	}

	select {
	case <-chB:
		t.Fatal("topic b subscriber should not receive topic a's message")
	default:
	}
}

func TestParseMessageFallsBackToRawPayload(t *testing.T) {
	t.Parallel()
	msg := parseMessage([]byte(`not json`))
	if msg.Topic != "" {
		t.Errorf("topic = %q, want empty for unparseable frame", msg.Topic)
	}
	if string(msg.Payload) != "not json" {
		t.Errorf("payload fallback = %s", msg.Payload)
	}
}
