package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"readeckbot/internal/domain"
	"readeckbot/internal/parse"
	"readeckbot/internal/provision"
	"readeckbot/internal/readeck"
)

const (
	mdCommandPrefix = "md_"
	recentLimit     = 10

	welcomeMessage = "Hi! Send me a URL to save it on Readeck.\n\n" +
		"You can also specify a title and tags like:\n" +
		"https://example.com Interesting Article +news +tech\n\n" +
		"To configure your Readeck credentials use one of:\n" +
		"• /token <YOUR_READECK_TOKEN>\n" +
		"• /register <password>  (your chat user ID is used as username)\n\n" +
		"After saving a bookmark, I'll give you a custom command like /md_<bookmark_id> " +
		"to directly fetch its markdown."

	helpMessage = "Send me a URL along with an optional title and +labels.\n" +
		"Example:\n" +
		"https://example.com/article Interesting Article +news +tech\n\n" +
		"I will save it to your Readeck account.\n" +
		"After saving, I'll show you a command /md_<bookmark_id> to get the article's markdown.\n" +
		"Use /list to see your unread bookmarks, /recent for your latest saves.\n\n" +
		"To set your Readeck credentials use:\n" +
		"• /token <YOUR_READECK_TOKEN>\n" +
		"or\n" +
		"• /register <password>  (your chat user ID is used as username)"

	noTokenMessage = "I don't have your Readeck token. " +
		"Set it with /token <YOUR_TOKEN> or /register <password>."

	tryLaterMessage = "Having troubles now... try later."
)

// Handle routes one inbound message and returns the replies to send.
func (d *Dispatcher) Handle(ctx context.Context, msg domain.InboundMessage) []Reply {
	if msg.IsCommand() {
		return d.handleCommand(ctx, msg)
	}
	return d.handleText(ctx, msg)
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg domain.InboundMessage) []Reply {
	switch msg.Command {
	case "start":
		return []Reply{{Text: welcomeMessage}}
	case "help":
		return []Reply{{Text: helpMessage}}
	case "token":
		return d.handleToken(ctx, msg)
	case "register":
		return d.handleRegister(ctx, msg)
	case "list":
		return d.handleList(ctx, msg)
	case "recent":
		return d.handleRecent(ctx, msg)
	default:
		if id, ok := strings.CutPrefix(msg.Command, mdCommandPrefix); ok {
			return d.handleMarkdown(ctx, msg, id)
		}
		return []Reply{{Text: "I don't recognize this command.\n" +
			"If you want the markdown of a saved article, use /md_<bookmark_id>."}}
	}
}

func (d *Dispatcher) handleText(ctx context.Context, msg domain.InboundMessage) []Reply {
	parsed := parse.Parse(msg.Content)
	if parsed == nil {
		return []Reply{{Text: "I couldn't find a valid URL.\n" +
			"Send a link like: https://example.com/article Interesting Article +news +tech"}}
	}

	token, ok := d.store.Get(msg.SenderID)
	if !ok {
		return []Reply{{Text: noTokenMessage}}
	}

	return d.saveBookmark(ctx, msg, parsed, token)
}

// handleToken stores a user-supplied bearer token. The persist failure
// surfaces: a token the store could not flush is not "saved".
func (d *Dispatcher) handleToken(ctx context.Context, msg domain.InboundMessage) []Reply {
	if len(msg.Args) != 1 {
		return []Reply{{Text: "Usage: /token <YOUR_READECK_TOKEN>"}}
	}

	if err := d.store.Set(msg.SenderID, msg.Args[0]); err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("token persist failed", "event_id", msg.EventID, "user_id", msg.SenderID, "err", err)
		return []Reply{{Text: "Could not save your token. Try again later."}}
	}

	d.recordEvent(ctx, msg.SenderID, "token", "token set manually")
	d.logger.Info("token set", "event_id", msg.EventID, "user_id", msg.SenderID)
	return []Reply{{Text: "Your Readeck token has been saved."}}
}

// handleRegister provisions a Readeck account and exchanges the password
// for a token. Arity: no args uses the user ID as both username and
// password; one arg is the password; two are an explicit pair.
func (d *Dispatcher) handleRegister(ctx context.Context, msg domain.InboundMessage) []Reply {
	var username, password string
	switch len(msg.Args) {
	case 0:
		username, password = msg.SenderID, msg.SenderID
	case 1:
		username, password = msg.SenderID, msg.Args[0]
	case 2:
		username, password = msg.Args[0], msg.Args[1]
	default:
		return []Reply{{Text: "Usage: /register <user> <password>\n" +
			"Usage: /register <password> (your chat user ID will be used as username)."}}
	}

	if err := d.provisioner.CreateUser(ctx, username, password); err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("provisioning failed", "event_id", msg.EventID, "username", username, "err", err)
		var pErr *provision.Error
		if errors.As(err, &pErr) && pErr.Stderr != "" {
			return []Reply{{Text: "Registration failed: " + pErr.Stderr}}
		}
		return []Reply{{Text: "Registration failed: " + err.Error()}}
	}

	d.logger.Info("user provisioned, fetching token", "event_id", msg.EventID, "username", username)

	token, err := d.client.Authenticate(ctx, username, password)
	if err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("token exchange failed", "event_id", msg.EventID, "username", username, "err", err)
		if errors.Is(err, readeck.ErrTokenMissing) {
			// Account exists; the user must not re-register.
			return []Reply{{Text: "Registration succeeded but failed to retrieve token."}}
		}
		return []Reply{{Text: tryLaterMessage}}
	}

	// The token belongs to the requester, even when an explicit
	// username/password pair was registered.
	if err := d.store.Set(msg.SenderID, token); err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("token persist failed", "event_id", msg.EventID, "user_id", msg.SenderID, "err", err)
		return []Reply{{Text: "Registration succeeded but I could not save your token. Try /token later."}}
	}

	d.registrationsTotal.Inc()
	d.recordEvent(ctx, msg.SenderID, "register", "username="+username)
	d.logger.Info("registration complete", "event_id", msg.EventID, "user_id", msg.SenderID, "username", username)
	return []Reply{{Text: "Registration successful! Your token has been saved."}}
}

func (d *Dispatcher) saveBookmark(ctx context.Context, msg domain.InboundMessage, parsed *parse.Message, token string) []Reply {
	br := readeck.BookmarkRequest{
		URL:    parsed.URL,
		Title:  parsed.Title,
		Labels: d.aliases.Expand(parsed.Labels),
	}

	id, err := d.client.CreateBookmark(ctx, token, br)
	if err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("bookmark submit failed", "event_id", msg.EventID, "user_id", msg.SenderID, "err", err)
		switch {
		case errors.Is(err, readeck.ErrMissingBookmarkID):
			return []Reply{{Text: "Saved bookmark but missing Bookmark-Id header."}}
		case isStatusError(err):
			return []Reply{{Text: "Failed to save bookmark."}}
		default:
			return []Reply{{Text: tryLaterMessage}}
		}
	}

	bm, err := d.client.GetBookmark(ctx, token, id)
	if err != nil {
		d.logger.Warn("bookmark details unavailable", "event_id", msg.EventID, "bookmark_id", id, "err", err)
		if isStatusError(err) {
			// Saved but unconfirmed; the follow-up command still works.
			return []Reply{{Text: fmt.Sprintf("Saved bookmark but failed to retrieve details.\n"+
				"You can still use /md_%s to fetch the article's markdown.", id)}}
		}
		d.errorsTotal.Inc()
		return []Reply{{Text: tryLaterMessage}}
	}

	title := bm.Title
	if title == "" {
		title = "No Title"
	}

	d.savesTotal.Inc()
	d.recordSave(ctx, msg.SenderID, id, parsed.URL, title)
	d.logger.Info("bookmark saved", "event_id", msg.EventID, "user_id", msg.SenderID, "bookmark_id", id, "title", title)

	if bm.Href != "" {
		return []Reply{{
			Text:     fmt.Sprintf("Saved: [%s](%s)\n\nUse `/md_%s` to view the article's markdown.", title, bm.Href, id),
			Markdown: true,
		}}
	}
	return []Reply{{Text: fmt.Sprintf("Saved: %s\n\nUse /md_%s to view the article's markdown.", title, id)}}
}

// handleMarkdown resolves a /md_<id> command. The id is taken verbatim,
// exactly as it was handed out after saving.
func (d *Dispatcher) handleMarkdown(ctx context.Context, msg domain.InboundMessage, id string) []Reply {
	token, ok := d.store.Get(msg.SenderID)
	if !ok {
		return []Reply{{Text: noTokenMessage}}
	}

	text, err := d.client.ArticleMarkdown(ctx, token, id)
	if err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("article fetch failed", "event_id", msg.EventID, "bookmark_id", id, "err", err)
		if isStatusError(err) {
			return []Reply{{Text: "Failed to retrieve the article markdown."}}
		}
		return []Reply{{Text: tryLaterMessage}}
	}

	d.fetchesTotal.Inc()
	d.logger.Info("article fetched", "event_id", msg.EventID, "user_id", msg.SenderID, "bookmark_id", id, "len", len(text))

	var replies []Reply
	for _, chunk := range splitChunks(text, chunkLimit) {
		replies = append(replies, Reply{Text: chunk})
	}
	return replies
}

// handleList shows the user's unarchived bookmarks straight from the
// backend, each with its /md_<id> fetch command.
func (d *Dispatcher) handleList(ctx context.Context, msg domain.InboundMessage) []Reply {
	token, ok := d.store.Get(msg.SenderID)
	if !ok {
		return []Reply{{Text: noTokenMessage}}
	}

	bookmarks, err := d.client.ListUnread(ctx, token)
	if err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("bookmark list failed", "event_id", msg.EventID, "user_id", msg.SenderID, "err", err)
		if isStatusError(err) {
			return []Reply{{Text: "Failed to retrieve your bookmarks."}}
		}
		return []Reply{{Text: tryLaterMessage}}
	}
	if len(bookmarks) == 0 {
		return []Reply{{Text: "No unarchived bookmarks found."}}
	}

	var sb strings.Builder
	for _, bm := range bookmarks {
		title := bm.Title
		if title == "" {
			title = "No Title"
		}
		fmt.Fprintf(&sb, "- [%s](%s) | %s | /md_%s\n", title, bm.URL, bm.Site, bm.ID)
	}
	return []Reply{{Text: sb.String(), Markdown: true}}
}

func (d *Dispatcher) handleRecent(ctx context.Context, msg domain.InboundMessage) []Reply {
	if d.journal == nil {
		return []Reply{{Text: "Save history is not enabled."}}
	}

	saves, err := d.journal.RecentSaves(ctx, msg.SenderID, recentLimit)
	if err != nil {
		d.errorsTotal.Inc()
		d.logger.Error("recent saves lookup failed", "event_id", msg.EventID, "user_id", msg.SenderID, "err", err)
		return []Reply{{Text: tryLaterMessage}}
	}
	if len(saves) == 0 {
		return []Reply{{Text: "No saved bookmarks yet. Send me a URL to get started."}}
	}

	var sb strings.Builder
	sb.WriteString("Your recent saves:\n")
	for _, sv := range saves {
		title := sv.Title
		if title == "" {
			title = sv.URL
		}
		fmt.Fprintf(&sb, "• %s  /md_%s\n", title, sv.BookmarkID)
	}
	return []Reply{{Text: sb.String()}}
}

// recordSave journals best-effort; a journal failure never blocks the reply.
func (d *Dispatcher) recordSave(ctx context.Context, userID, bookmarkID, url, title string) {
	if d.journal == nil {
		return
	}
	if err := d.journal.RecordSave(ctx, userID, bookmarkID, url, title); err != nil {
		d.logger.Warn("journal save failed", "user_id", userID, "err", err)
	}
}

func (d *Dispatcher) recordEvent(ctx context.Context, userID, action, detail string) {
	if d.journal == nil {
		return
	}
	if err := d.journal.RecordEvent(ctx, userID, action, detail); err != nil {
		d.logger.Warn("journal event failed", "user_id", userID, "err", err)
	}
}

func isStatusError(err error) bool {
	var statusErr *readeck.StatusError
	return errors.As(err, &statusErr)
}
