package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"readeckbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(domain.InboundMessage{Channel: "test", Content: "hello"})

	select {
	case msg := <-b.Subscribe():
		if msg.Content != "hello" {
			t.Errorf("Content = %q", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestBus_OutboundRouting(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	got := make(chan domain.OutboundMessage, 1)
	b.OnOutbound("telegram", func(msg domain.OutboundMessage) {
		got <- msg
	})

	b.SendOutbound(domain.OutboundMessage{Channel: "telegram", Content: "reply"})

	select {
	case msg := <-got:
		if msg.Content != "reply" {
			t.Errorf("Content = %q", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}

	// Unknown channel is logged and dropped, not a panic.
	b.SendOutbound(domain.OutboundMessage{Channel: "nope", Content: "x"})
}

func TestBus_PublishAfterCloseIsDropped(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Publish(domain.InboundMessage{Channel: "test"}) // must not panic
}
