package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/botweet/botweet/task"
)

// reactor performs reactions on behalf of one loop.
type reactor struct {
	api       API
	loop      string
	logger    *slog.Logger
	openMedia MediaOpener
}

func (b *Bot) reactor(api API, name string) *reactor {
	return &reactor{
		api:       api,
		loop:      name,
		logger:    b.logger.With("loop", name),
		openMedia: b.openMedia,
	}
}

func (r *reactor) record(kind string, err error) {
	if err != nil {
		reactionFailures.WithLabelValues(r.loop, kind).Inc()
		return
	}
	reactionsTotal.WithLabelValues(r.loop, kind).Inc()
}

// post invokes fn and submits the result as a status, replying to the triggering
// status if there is one. Returns the new status id, or zero if fn skipped.
func (r *reactor) post(ctx context.Context, fn ReactionFunc, trig *Trigger) (int64, error) {
	content, err := fn(ctx, trig)
	if err != nil {
		return 0, fmt.Errorf("building post: %w", err)
	}
	if content == nil {
		return 0, nil
	}
	if len(content.Media) > MaxPostMedia {
		return 0, fmt.Errorf("%w: only %d media allowed per post, got %d", ErrTooManyMedia, MaxPostMedia, len(content.Media))
	}
	if content.Text == "" && len(content.Media) == 0 {
		return 0, ErrEmptyContent
	}
	if n := textLength(content.Text); n > MaxPostLength {
		return 0, fmt.Errorf("%w: %d characters, at most %d per post", ErrTextTooLong, n, MaxPostLength)
	}

	p := &Post{
		Text:    content.Text,
		ReplyTo: content.ReplyTo,
	}
	if p.ReplyTo == 0 && trig.Event != nil && trig.Event.Kind != FeedMessages {
		p.ReplyTo = trig.Event.ID
	}
	p.MediaIDs, err = r.uploadMedia(ctx, content.Media)
	if err != nil {
		return 0, err
	}

	id, err := r.api.Post(ctx, p)
	if err != nil {
		return 0, err
	}
	r.logger.Info("posted status", "id", id, "replyTo", p.ReplyTo, "media", len(p.MediaIDs))
	return id, nil
}

func (r *reactor) retweet(ctx context.Context, ev *Event) error {
	if err := r.api.Retweet(ctx, ev.ID); err != nil {
		return err
	}
	r.logger.Info("retweeted status", "id", ev.ID)
	return nil
}

// message invokes fn and sends the result as a direct message. The recipient comes
// from the content, falling back to the author of the triggering event.
func (r *reactor) message(ctx context.Context, fn ReactionFunc, trig *Trigger) (int64, error) {
	content, err := fn(ctx, trig)
	if err != nil {
		return 0, fmt.Errorf("building message: %w", err)
	}
	if content == nil {
		return 0, nil
	}
	if len(content.Media) > MaxMessageMedia {
		return 0, fmt.Errorf("%w: only %d media allowed per message, got %d", ErrTooManyMedia, MaxMessageMedia, len(content.Media))
	}
	if content.Text == "" && len(content.Media) == 0 {
		return 0, ErrEmptyContent
	}
	if n := textLength(content.Text); n > MaxMessageLength {
		return 0, fmt.Errorf("%w: %d characters, at most %d per message", ErrTextTooLong, n, MaxMessageLength)
	}
	recipient := strings.TrimPrefix(strings.TrimSpace(content.Recipient), "@")
	if recipient == "" && (trig.Event == nil || trig.Event.AuthorID == 0) {
		return 0, ErrNoRecipient
	}

	dm := &DirectMessage{Text: content.Text}
	switch {
	case recipient == "":
		dm.RecipientID = trig.Event.AuthorID
	default:
		if n, err := strconv.ParseInt(recipient, 10, 64); err == nil {
			dm.RecipientID = n
		} else {
			dm.RecipientID, err = r.api.ResolveUser(ctx, recipient)
			if err != nil {
				return 0, fmt.Errorf("%w: resolving %q: %w", ErrNoRecipient, recipient, err)
			}
		}
	}

	ids, err := r.uploadMedia(ctx, content.Media)
	if err != nil {
		return 0, err
	}
	if len(ids) == 1 {
		dm.MediaID = ids[0]
	}

	id, err := r.api.SendDirectMessage(ctx, dm)
	if err != nil {
		return 0, err
	}
	r.logger.Info("sent direct message", "id", id, "recipient", dm.RecipientID)
	return id, nil
}

// react performs every configured reaction for one matched event. Failures are
// isolated per reaction; only fatal errors are returned.
func (r *reactor) react(ctx context.Context, cfg *ReactionConfig, trig *Trigger) error {
	var fatal error
	note := func(kind string, err error) {
		r.record(kind, err)
		if err == nil {
			return
		}
		r.logger.Warn("reaction failed", "kind", kind, "event", trig.Event.ID, "err", err)
		if fatal == nil && isFatal(err) {
			fatal = err
		}
	}

	switch {
	case cfg.Retweet:
		note("retweet", recovered(func() error {
			return r.retweet(ctx, trig.Event)
		}))
	case cfg.Reply != nil:
		note("reply", recovered(func() error {
			_, err := r.post(ctx, cfg.Reply, trig)
			return err
		}))
	}
	if cfg.Message != nil && fatal == nil {
		note("message", recovered(func() error {
			_, err := r.message(ctx, cfg.Message, trig)
			return err
		}))
	}
	return fatal
}

// recovered runs fn, turning a panic (usually from a caller's ReactionFunc) into an
// error wrapping task.ErrPanic.
func recovered(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", task.ErrPanic, rec)
		}
	}()
	return fn()
}
