package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/botweet/botweet/task"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Loop is the handle of a running reactive behavior. Stop, IsStopped, State, Err and
// Wait come from the embedded task handle.
type Loop struct {
	*task.Handle

	name     string
	feed     Feed
	cfg      ReactionConfig
	interval time.Duration
	react    *reactor
	logger   *slog.Logger

	// written only by the loop goroutine
	sinceID atomic.Int64
}

// SinceID returns the current high-water-mark.
func (l *Loop) SinceID() int64 {
	return l.sinceID.Load()
}

func (l *Loop) Name() string {
	return l.name
}

// StartTimedPost invokes fn and posts the result every interval.
func (b *Bot) StartTimedPost(fn ReactionFunc, interval time.Duration) (*Loop, error) {
	return b.StartNamedTimedPost("timed_post", fn, interval)
}

// StartNamedTimedPost is StartTimedPost with an explicit loop name for logs and
// metrics.
func (b *Bot) StartNamedTimedPost(name string, fn ReactionFunc, interval time.Duration) (*Loop, error) {
	api, err := b.API()
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, ErrNoReaction
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	if name == "" {
		name = "timed_post"
	}
	l := b.newLoop(api, name, Feed{}, ReactionConfig{Name: name, Reply: fn}, interval)
	l.Handle = task.Start(l.name, l.runTimed, task.WithLogger(b.logger))
	return l, nil
}

// StartMentionReactions reacts to statuses mentioning the authenticated account.
func (b *Bot) StartMentionReactions(cfg ReactionConfig) (*Loop, error) {
	return b.startFeed(Feed{Kind: FeedMentions}, cfg)
}

// StartSearchReactions reacts to search results for query. params are passed through
// to the search endpoint (eg "lang", "result_type").
func (b *Bot) StartSearchReactions(query string, params map[string]string, cfg ReactionConfig) (*Loop, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidFeed)
	}
	return b.startFeed(Feed{Kind: FeedSearch, Query: query, Params: params}, cfg)
}

// StartUserTimelineReactions reacts to statuses of one user (screen name or id).
func (b *Bot) StartUserTimelineReactions(user string, cfg ReactionConfig) (*Loop, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: empty user", ErrInvalidFeed)
	}
	return b.startFeed(Feed{Kind: FeedUserTimeline, User: user}, cfg)
}

// StartMessageReactions reacts to inbound direct messages. Messages sent by the
// authenticated account itself are skipped.
func (b *Bot) StartMessageReactions(cfg ReactionConfig) (*Loop, error) {
	return b.startFeed(Feed{Kind: FeedMessages}, cfg)
}

func (b *Bot) startFeed(feed Feed, cfg ReactionConfig) (*Loop, error) {
	api, err := b.API()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(feed.Kind); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults(feed.Kind)
	feed.Limit = cfg.Limit

	l := b.newLoop(api, cfg.Name, feed, cfg, cfg.CheckInterval)
	l.Handle = task.Start(l.name, l.runFeed, task.WithLogger(b.logger))
	return l, nil
}

func (b *Bot) newLoop(api API, name string, feed Feed, cfg ReactionConfig, interval time.Duration) *Loop {
	l := &Loop{
		name:     name,
		feed:     feed,
		cfg:      cfg,
		interval: interval,
		react:    b.reactor(api, name),
		logger:   b.logger.With("loop", name),
	}
	l.sinceID.Store(cfg.SinceID)
	return l
}

// StopAll stops every loop concurrently and waits for all of them.
func StopAll(loops ...*Loop) {
	var g errgroup.Group
	for _, l := range loops {
		if l == nil || l.Handle == nil {
			continue
		}
		g.Go(func() error {
			l.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

// sleep waits for d or until the signal is set; it reports whether the loop should
// continue.
func sleep(sig *task.Signal, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-sig.Done():
		return false
	case <-t.C:
		return !sig.Stopped()
	}
}

func (l *Loop) runTimed(sig *task.Signal) error {
	activeLoops.Inc()
	defer activeLoops.Dec()
	ctx := context.Background()

	l.logger.Info("timed posting started", "interval", l.interval)
	for !sig.Stopped() {
		_, err := l.react.post(ctx, l.cfg.Reply, &Trigger{})
		l.react.record("post", err)
		if err != nil {
			if isFatal(err) {
				return err
			}
			l.logger.Warn("timed post failed", "err", err)
		}
		if !sleep(sig, l.interval) {
			break
		}
	}
	l.logger.Info("timed posting stopped")
	return nil
}

func (l *Loop) runFeed(sig *task.Signal) error {
	activeLoops.Inc()
	defer activeLoops.Dec()
	// in-flight requests are not tied to the stop signal
	ctx := context.Background()

	l.logger.Info("reactive loop started", "feed", l.feed.Kind, "interval", l.interval, "sinceID", l.SinceID())
	for !sig.Stopped() {
		if err := l.poll(ctx); err != nil {
			return err
		}
		if !sleep(sig, l.interval) {
			break
		}
	}
	l.logger.Info("reactive loop stopped", "sinceID", l.SinceID())
	return nil
}

// poll runs one fetch-filter-react iteration. It only returns fatal errors; anything
// else is logged and retried on the next tick.
func (l *Loop) poll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "poll")
	defer span.End()
	span.SetAttributes(attribute.String("loop", l.name), attribute.String("feed", l.feed.Kind.String()))

	pollsTotal.WithLabelValues(l.name).Inc()
	start := l.SinceID()

	var self int64
	if l.feed.Kind == FeedMessages {
		var err error
		self, err = l.react.api.Self(ctx)
		if err != nil {
			return l.pollFailed(err)
		}
	}

	events, err := l.react.api.FetchFeed(ctx, l.feed, start)
	if err != nil {
		return l.pollFailed(err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	span.SetAttributes(attribute.Int("events", len(events)))

	for i := range events {
		ev := &events[i]
		if ev.ID <= start {
			continue
		}
		if ev.ID > l.SinceID() {
			l.sinceID.Store(ev.ID)
			sinceIDGauge.WithLabelValues(l.name).Set(float64(ev.ID))
		}
		eventsSeen.WithLabelValues(l.name).Inc()

		if l.feed.Kind == FeedMessages && ev.AuthorID == self {
			continue
		}
		match, ok := l.match(ev.Text)
		if !ok {
			continue
		}
		eventsMatched.WithLabelValues(l.name).Inc()
		l.logger.Debug("event matched", "event", ev.ID, "author", ev.AuthorName)

		if err := l.react.react(ctx, &l.cfg, &Trigger{Event: ev, Match: match}); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) pollFailed(err error) error {
	pollFailures.WithLabelValues(l.name).Inc()
	if isFatal(err) {
		return fmt.Errorf("polling %s: %w", l.feed.Kind, err)
	}
	l.logger.Warn("poll failed; will retry next tick", "err", err, "interval", l.interval)
	return nil
}

func (l *Loop) match(text string) ([]string, bool) {
	if l.cfg.Regex == nil {
		return nil, true
	}
	m := l.cfg.Regex.FindStringSubmatch(text)
	return m, m != nil
}
