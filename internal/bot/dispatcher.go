// Package bot routes inbound chat events to the credential, bookmark,
// registration, and article handlers.
package bot

import (
	"context"
	"log/slog"

	"readeckbot/internal/domain"
	"readeckbot/internal/history"
	"readeckbot/internal/metrics"
	"readeckbot/internal/parse"
	"readeckbot/internal/readeck"
)

const defaultConcurrency = 5

// ReadeckClient is the backend surface the handlers call. Satisfied by
// *readeck.Client; substituted with a fake in tests.
type ReadeckClient interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	CreateBookmark(ctx context.Context, token string, br readeck.BookmarkRequest) (string, error)
	GetBookmark(ctx context.Context, token, id string) (*readeck.Bookmark, error)
	ListUnread(ctx context.Context, token string) ([]readeck.Bookmark, error)
	ArticleMarkdown(ctx context.Context, token, id string) (string, error)
}

// UserProvisioner creates Readeck accounts. Satisfied by *provision.Provisioner.
type UserProvisioner interface {
	CreateUser(ctx context.Context, username, password string) error
}

// Journal records saves and account events. Satisfied by *history.Store.
// May be nil; journaling is best-effort and never blocks a reply.
type Journal interface {
	RecordSave(ctx context.Context, userID, bookmarkID, url, title string) error
	RecentSaves(ctx context.Context, userID string, limit int) ([]history.Save, error)
	RecordEvent(ctx context.Context, userID, action, detail string) error
}

// Dispatcher consumes inbound messages from the bus and replies through it.
// It owns no state of its own; everything lives in the injected deps.
type Dispatcher struct {
	store       domain.CredentialStore
	client      ReadeckClient
	provisioner UserProvisioner
	journal     Journal
	aliases     parse.Aliases
	bus         domain.MessageBus
	logger      *slog.Logger
	concurrency int

	messagesTotal      *metrics.Counter
	savesTotal         *metrics.Counter
	fetchesTotal       *metrics.Counter
	registrationsTotal *metrics.Counter
	errorsTotal        *metrics.Counter
}

type Config struct {
	Store       domain.CredentialStore
	Client      ReadeckClient
	Provisioner UserProvisioner
	Journal     Journal
	Aliases     parse.Aliases
	Bus         domain.MessageBus
	Logger      *slog.Logger
	Concurrency int
}

func New(cfg Config) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Dispatcher{
		store:       cfg.Store,
		client:      cfg.Client,
		provisioner: cfg.Provisioner,
		journal:     cfg.Journal,
		aliases:     cfg.Aliases,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,

		messagesTotal:      metrics.Collector.Counter("readeckbot_messages_total", "Inbound messages processed", ""),
		savesTotal:         metrics.Collector.Counter("readeckbot_saves_total", "Bookmarks saved", ""),
		fetchesTotal:       metrics.Collector.Counter("readeckbot_fetches_total", "Article markdown fetches", ""),
		registrationsTotal: metrics.Collector.Counter("readeckbot_registrations_total", "Completed registrations", ""),
		errorsTotal:        metrics.Collector.Counter("readeckbot_errors_total", "User-visible errors", ""),
	}
}

// Run consumes inbound messages and processes them with bounded concurrency.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", "concurrency", d.concurrency)

	sem := make(chan struct{}, d.concurrency)
	inbound := d.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				d.logger.Info("inbound channel closed, dispatcher stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				d.processMessage(ctx, m)
			}(msg)
		}
	}
}

func (d *Dispatcher) processMessage(ctx context.Context, msg domain.InboundMessage) {
	d.messagesTotal.Inc()
	d.logger.Info("processing message",
		"event_id", msg.EventID,
		"channel", msg.Channel,
		"user_id", msg.SenderID,
		"command", msg.Command,
	)

	for _, reply := range d.Handle(ctx, msg) {
		d.bus.SendOutbound(domain.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: reply.Text,
			Format:  reply.Format(),
		})
	}
}

// Reply is one outbound message produced by a handler.
type Reply struct {
	Text     string
	Markdown bool
}

func (r Reply) Format() string {
	if r.Markdown {
		return "markdown"
	}
	return "text"
}
