package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"readeckbot/internal/domain"

	"github.com/google/uuid"
)

// CLI implements domain.Channel for an interactive terminal session,
// speaking the same command protocol as Telegram.
type CLI struct {
	bus    domain.MessageBus
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

type CLIConfig struct {
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

func NewCLI(cfg CLIConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &CLI{
		logger: cfg.Logger,
		in:     cfg.In,
		out:    cfg.Out,
	}
}

func (c *CLI) Name() string { return "cli" }

// Start runs the interactive REPL and blocks until context is cancelled.
func (c *CLI) Start(ctx context.Context, bus domain.MessageBus) error {
	c.bus = bus

	bus.OnOutbound("cli", func(msg domain.OutboundMessage) {
		_, _ = fmt.Fprintln(c.out, msg.Content)
		_, _ = fmt.Fprint(c.out, "You> ")
	})

	_, _ = fmt.Fprintln(c.out, "readeckbot CLI. Send a URL to save it, /help for commands, /quit to exit.")
	_, _ = fmt.Fprint(c.out, "You> ")

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil // EOF
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			_, _ = fmt.Fprint(c.out, "You> ")
			continue
		}
		if line == "/quit" || line == "/exit" || line == "/q" {
			c.logger.Info("user requested quit")
			return nil
		}

		c.bus.Publish(parseLine(line))
	}
}

// parseLine turns a REPL line into an inbound message, splitting off a
// leading /command the way the Telegram transport does.
func parseLine(line string) domain.InboundMessage {
	msg := domain.InboundMessage{
		Channel:   "cli",
		ChatID:    "direct",
		SenderID:  "cli",
		Content:   line,
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
	}
	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line[1:])
		if len(fields) > 0 {
			msg.Command = fields[0]
			msg.Args = fields[1:]
		}
	}
	return msg
}

// Stop is a no-op for CLI (we exit when Start returns).
func (c *CLI) Stop() error { return nil }

func (c *CLI) Send(ctx context.Context, chatID string, content string) error {
	_, err := fmt.Fprintln(c.out, content)
	return err
}
