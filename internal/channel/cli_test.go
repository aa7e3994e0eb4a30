package channel

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"readeckbot/internal/bus"
	"readeckbot/internal/domain"
)

func TestParseLine_Command(t *testing.T) {
	msg := parseLine("/register alice pw")
	if msg.Command != "register" {
		t.Errorf("Command = %q", msg.Command)
	}
	if len(msg.Args) != 2 || msg.Args[0] != "alice" || msg.Args[1] != "pw" {
		t.Errorf("Args = %v", msg.Args)
	}
	if msg.EventID == "" {
		t.Error("expected an event ID")
	}
}

func TestParseLine_DynamicCommand(t *testing.T) {
	msg := parseLine("/md_42")
	if msg.Command != "md_42" || len(msg.Args) != 0 {
		t.Errorf("parsed %q %v", msg.Command, msg.Args)
	}
}

func TestParseLine_FreeText(t *testing.T) {
	msg := parseLine("https://x.com/a Title +tag")
	if msg.IsCommand() {
		t.Errorf("free text parsed as command: %q", msg.Command)
	}
	if msg.Content != "https://x.com/a Title +tag" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestCLI_PublishesLines(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	b := bus.New(10, logger)
	defer b.Close()

	in := strings.NewReader("/token abc\nhttps://x.com\n/quit\n")
	var out bytes.Buffer
	c := NewCLI(CLIConfig{Logger: logger, In: in, Out: &out})

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background(), b) }()

	inbound := b.Subscribe()
	var got []domain.InboundMessage
	for len(got) < 2 {
		select {
		case msg := <-inbound:
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %d messages", len(got))
		}
	}

	if got[0].Command != "token" || len(got[0].Args) != 1 {
		t.Errorf("first message = %+v", got[0])
	}
	if got[1].IsCommand() || got[1].Content != "https://x.com" {
		t.Errorf("second message = %+v", got[1])
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("REPL did not exit on /quit")
	}
}
